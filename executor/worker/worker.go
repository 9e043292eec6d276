package worker

import (
	"context"

	"github.com/PeladoCollado/requester/metrics"
	"github.com/PeladoCollado/requester/requester/logger"
	"github.com/PeladoCollado/requester/types"
)

// Recorder receives every completed attempt.
type Recorder interface {
	Record(outcome types.Outcome)
}

// StopSignal is polled before each request.
type StopSignal interface {
	ShouldStop() bool
}

type Job struct {
	ID        int
	Spec      types.RequestSpec
	Quota     types.Quota
	Sender    Sender
	Recorder  Recorder
	Stop      StopSignal
	Collector metrics.MetricsCollector
}

type Report struct {
	WorkerID  int
	Attempted uint64
	Failures  uint64
	Stopped   bool
}

// Run sends requests one at a time until the quota is used up or the stop
// signal is observed. A request already in flight when stop is requested runs
// to completion. Transport failures are recorded and do not end the loop.
func Run(ctx context.Context, job Job) Report {
	report := Report{WorkerID: job.ID}
	collector := job.Collector
	if collector == nil {
		collector = metrics.Discard{}
	}

	for {
		if job.Stop.ShouldStop() {
			report.Stopped = true
			return report
		}
		if !job.Quota.Unlimited && report.Attempted >= job.Quota.Requests {
			return report
		}

		outcome := job.Sender.Send(ctx, job.Spec)
		report.Attempted++
		job.Recorder.Record(outcome)
		metrics.PostOutcome(collector, outcome)
		if outcome.Failed() {
			report.Failures++
			logger.Logger.Debugw("Request failed",
				"worker", job.ID,
				"kind", outcome.Failure,
				"error", outcome.Err)
		} else if outcome.Err != nil {
			logger.Logger.Debugw("Response body read failed",
				"worker", job.ID,
				"status", outcome.Status,
				"error", outcome.Err)
		}
	}
}
