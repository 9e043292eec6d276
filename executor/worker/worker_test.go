package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/PeladoCollado/requester/metrics"
	"github.com/PeladoCollado/requester/types"
)

type fakeMetrics struct {
	lock sync.Mutex

	successes int
	failures  int
}

func (f *fakeMetrics) PostSuccess(event metrics.SuccessEvent) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.successes++
}

func (f *fakeMetrics) PostFailure(event metrics.ErrorEvent) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.failures++
}

type fakeRecorder struct {
	lock     sync.Mutex
	outcomes []types.Outcome
}

func (f *fakeRecorder) Record(outcome types.Outcome) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeRecorder) count() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.outcomes)
}

type flagStop struct {
	stopped atomic.Bool
}

func (f *flagStop) ShouldStop() bool {
	return f.stopped.Load()
}

type countingSender struct {
	calls   atomic.Int64
	outcome func(call int64) types.Outcome
}

func (c *countingSender) Send(ctx context.Context, spec types.RequestSpec) types.Outcome {
	call := c.calls.Add(1)
	if c.outcome != nil {
		return c.outcome(call)
	}
	return types.Outcome{Status: 200}
}

func TestRunStopsWhenQuotaExhausted(t *testing.T) {
	sender := &countingSender{}
	recorder := &fakeRecorder{}
	collector := &fakeMetrics{}

	report := Run(context.Background(), Job{
		ID:        1,
		Spec:      types.RequestSpec{Method: "GET", URL: "http://unused"},
		Quota:     types.Quota{Requests: 7},
		Sender:    sender,
		Recorder:  recorder,
		Stop:      &flagStop{},
		Collector: collector,
	})

	if sender.calls.Load() != 7 {
		t.Fatalf("expected 7 sends, got %d", sender.calls.Load())
	}
	if recorder.count() != 7 {
		t.Fatalf("expected 7 recorded outcomes, got %d", recorder.count())
	}
	if collector.successes != 7 {
		t.Fatalf("expected 7 success metrics, got %d", collector.successes)
	}
	if report.Attempted != 7 || report.Stopped {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestRunWithZeroQuotaNeverSends(t *testing.T) {
	sender := &countingSender{}
	report := Run(context.Background(), Job{
		Quota:    types.Quota{Requests: 0},
		Sender:   sender,
		Recorder: &fakeRecorder{},
		Stop:     &flagStop{},
	})
	if sender.calls.Load() != 0 {
		t.Fatalf("expected no sends, got %d", sender.calls.Load())
	}
	if report.Attempted != 0 {
		t.Fatalf("expected no attempts, got %d", report.Attempted)
	}
}

func TestRunContinuesAfterTransportFailures(t *testing.T) {
	sender := &countingSender{outcome: func(call int64) types.Outcome {
		if call%2 == 0 {
			return types.Outcome{Failure: types.FailureConnect}
		}
		return types.Outcome{Status: 200}
	}}
	recorder := &fakeRecorder{}
	collector := &fakeMetrics{}

	report := Run(context.Background(), Job{
		Quota:     types.Quota{Requests: 10},
		Sender:    sender,
		Recorder:  recorder,
		Stop:      &flagStop{},
		Collector: collector,
	})

	if report.Attempted != 10 || report.Failures != 5 {
		t.Fatalf("expected 10 attempts with 5 failures, got %+v", report)
	}
	if collector.failures != 5 || collector.successes != 5 {
		t.Fatalf("unexpected metrics successes=%d failures=%d", collector.successes, collector.failures)
	}
}

func TestRunObservesStopBetweenRequests(t *testing.T) {
	stop := &flagStop{}
	sender := &countingSender{outcome: func(call int64) types.Outcome {
		if call == 3 {
			stop.stopped.Store(true)
		}
		return types.Outcome{Status: 204}
	}}
	recorder := &fakeRecorder{}

	report := Run(context.Background(), Job{
		Quota:    types.Quota{Unlimited: true},
		Sender:   sender,
		Recorder: recorder,
		Stop:     stop,
	})

	if sender.calls.Load() != 3 {
		t.Fatalf("expected the in-flight request to finish and no more to start, got %d sends", sender.calls.Load())
	}
	if recorder.count() != 3 {
		t.Fatalf("expected the in-flight outcome to be recorded, got %d", recorder.count())
	}
	if !report.Stopped {
		t.Fatalf("expected report to mark the worker as stopped")
	}
}

func TestRunExitsImmediatelyWhenAlreadyStopped(t *testing.T) {
	stop := &flagStop{}
	stop.stopped.Store(true)
	sender := &countingSender{}
	Run(context.Background(), Job{
		Quota:    types.Quota{Unlimited: true},
		Sender:   sender,
		Recorder: &fakeRecorder{},
		Stop:     stop,
	})
	if sender.calls.Load() != 0 {
		t.Fatalf("expected no sends after stop, got %d", sender.calls.Load())
	}
}
