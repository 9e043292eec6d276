package manager

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/PeladoCollado/requester/types"
)

const (
	minLatencyMicros = 1
	maxLatencyMicros = int64(time.Hour / time.Microsecond)
)

// Aggregator collects request outcomes from every worker. All state sits
// behind one lock and the completed total is derived from the code buckets
// when a snapshot is taken, so a snapshot can never disagree with itself.
type Aggregator struct {
	lock     sync.Mutex
	codes    map[uint16]uint64
	failures map[types.FailureKind]uint64
	latency  *hdrhistogram.Histogram
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		codes:    make(map[uint16]uint64),
		failures: make(map[types.FailureKind]uint64),
		latency:  hdrhistogram.New(minLatencyMicros, maxLatencyMicros, 3),
	}
}

// Record counts one completed attempt. A transport failure lands in the
// FailureStatus bucket and in its failure-kind bucket.
func (a *Aggregator) Record(outcome types.Outcome) {
	micros := clampLatency(outcome.Duration.Microseconds())

	a.lock.Lock()
	defer a.lock.Unlock()
	if outcome.Failed() {
		a.codes[types.FailureStatus]++
		a.failures[outcome.Failure]++
	} else {
		a.codes[outcome.Status]++
	}
	// micros is clamped into the histogram range so RecordValue cannot fail.
	_ = a.latency.RecordValue(micros)
}

func (a *Aggregator) Snapshot() types.Snapshot {
	a.lock.Lock()
	defer a.lock.Unlock()

	snapshot := types.Snapshot{
		Codes:    make(map[uint16]uint64, len(a.codes)),
		Failures: make(map[types.FailureKind]uint64, len(a.failures)),
	}
	for code, count := range a.codes {
		snapshot.Codes[code] = count
		snapshot.Total += count
	}
	for kind, count := range a.failures {
		snapshot.Failures[kind] = count
	}
	snapshot.Latency = summarizeLatency(a.latency)
	return snapshot
}

// Completed is a cheaper read of the snapshot total for the rate reporter.
func (a *Aggregator) Completed() uint64 {
	a.lock.Lock()
	defer a.lock.Unlock()
	var total uint64
	for _, count := range a.codes {
		total += count
	}
	return total
}

func summarizeLatency(h *hdrhistogram.Histogram) types.LatencySummary {
	if h.TotalCount() == 0 {
		return types.LatencySummary{}
	}
	return types.LatencySummary{
		Count:      h.TotalCount(),
		MinMillis:  microsToMillis(h.Min()),
		MaxMillis:  microsToMillis(h.Max()),
		MeanMillis: h.Mean() / 1000,
		P50Millis:  microsToMillis(h.ValueAtQuantile(50)),
		P90Millis:  microsToMillis(h.ValueAtQuantile(90)),
		P99Millis:  microsToMillis(h.ValueAtQuantile(99)),
	}
}

func microsToMillis(micros int64) float64 {
	return float64(micros) / 1000
}

func clampLatency(micros int64) int64 {
	if micros < minLatencyMicros {
		return minLatencyMicros
	}
	if micros > maxLatencyMicros {
		return maxLatencyMicros
	}
	return micros
}
