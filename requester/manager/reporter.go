package manager

import (
	"fmt"
	"io"
	"time"
)

const DefaultReportInterval = time.Second

// CompletedCounter is the read side of the aggregator the reporter needs.
type CompletedCounter interface {
	Completed() uint64
}

type Reporter struct {
	Stats    CompletedCounter
	Stop     *StopController
	Out      io.Writer
	Interval time.Duration
	Start    time.Time
}

// Run prints one throughput line per interval until the stop signal is seen.
func (r *Reporter) Run() {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	start := r.Start
	if start.IsZero() {
		start = time.Now()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastCount := uint64(0)
	lastTick := start
	for {
		select {
		case <-r.Stop.Done():
			return
		case <-ticker.C:
			if r.Stop.ShouldStop() {
				return
			}
			tick := time.Now()
			completed := r.Stats.Completed()
			fmt.Fprintln(r.Out, formatRate(completed, tick.Sub(start), completed-lastCount, tick.Sub(lastTick)))
			lastCount = completed
			lastTick = tick
		}
	}
}

func formatRate(completed uint64, elapsed time.Duration, delta uint64, window time.Duration) string {
	return fmt.Sprintf("requests=%d elapsed=%.1f rate=%.1f current=%.1f",
		completed, elapsed.Seconds(), perSecond(completed, elapsed), perSecond(delta, window))
}

func perSecond(count uint64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(count) / d.Seconds()
}
