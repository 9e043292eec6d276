package executor

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/PeladoCollado/requester/executor/worker"
	"github.com/PeladoCollado/requester/metrics"
	"github.com/PeladoCollado/requester/requester/logger"
	"github.com/PeladoCollado/requester/types"
)

type Options struct {
	Spec      types.RequestSpec
	Quotas    []types.Quota
	Sender    worker.Sender
	Recorder  worker.Recorder
	Stop      worker.StopSignal
	Collector metrics.MetricsCollector
}

// Pool is a fixed set of independent workers, one goroutine per quota.
type Pool struct {
	lock    sync.Mutex
	running map[int]struct{}
	reports []worker.Report

	done chan struct{}
}

// Start launches one worker per quota. The workers share the spec, sender,
// recorder and stop signal but never coordinate with each other.
func Start(ctx context.Context, opts Options) *Pool {
	pool := &Pool{
		running: make(map[int]struct{}, len(opts.Quotas)),
		reports: make([]worker.Report, 0, len(opts.Quotas)),
		done:    make(chan struct{}),
	}

	for id := range opts.Quotas {
		pool.running[id] = struct{}{}
	}

	var wg sync.WaitGroup
	wg.Add(len(opts.Quotas))
	for id, quota := range opts.Quotas {
		job := worker.Job{
			ID:        id,
			Spec:      opts.Spec,
			Quota:     quota,
			Sender:    opts.Sender,
			Recorder:  opts.Recorder,
			Stop:      opts.Stop,
			Collector: opts.Collector,
		}
		go func() {
			defer wg.Done()
			report := worker.Run(ctx, job)
			pool.finish(report)
		}()
	}

	go func() {
		wg.Wait()
		close(pool.done)
	}()
	logger.Logger.Infow("Started workers", "workers", len(opts.Quotas))
	return pool
}

func (p *Pool) finish(report worker.Report) {
	p.lock.Lock()
	defer p.lock.Unlock()
	delete(p.running, report.WorkerID)
	p.reports = append(p.reports, report)
}

// Done is closed once every worker has returned.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until all workers return or timeout passes, and returns the
// ids of workers still running at that point. A non-positive timeout waits
// without bound.
func (p *Pool) Wait(timeout time.Duration) []int {
	if timeout <= 0 {
		<-p.done
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	stragglers := make([]int, 0, len(p.running))
	for id := range p.running {
		stragglers = append(stragglers, id)
	}
	slices.Sort(stragglers)
	return stragglers
}

// Reports returns the reports of workers that have finished so far.
func (p *Pool) Reports() []worker.Report {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]worker.Report(nil), p.reports...)
}
