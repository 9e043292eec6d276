package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/PeladoCollado/requester/executor"
	"github.com/PeladoCollado/requester/executor/worker"
	"github.com/PeladoCollado/requester/metrics"
	"github.com/PeladoCollado/requester/requester/logger"
	"github.com/PeladoCollado/requester/requester/manager"
	"github.com/PeladoCollado/requester/types"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RunOptions struct {
	RequestLoader RequestLoader
	SenderFactory SenderFactory

	// Stdin carries operator commands. A nil Stdin means no operator, and the
	// run ends on quota exhaustion or context cancellation only.
	Stdin  io.Reader
	Stdout io.Writer

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

type runState string

const (
	stateStarting      runState = "starting"
	stateRunning       runState = "running"
	stateStopRequested runState = "stop-requested"
	stateDraining      runState = "draining"
	stateDone          runState = "done"
)

type supervisor struct {
	runID string
	state runState
}

func (s *supervisor) transition(next runState, keysAndValues ...interface{}) {
	logger.Logger.Infow("Run state changed",
		append([]interface{}{"runId", s.runID, "from", s.state, "to", next}, keysAndValues...)...)
	s.state = next
}

// Run loads the request, drives the workers until their quotas are used up
// or a stop arrives, drains them within the join timeout and returns the
// final report. Only configuration and request-file problems are errors.
func Run(ctx context.Context, cfg Config, opts RunOptions) (types.RunReport, error) {
	if err := ValidateConfig(cfg); err != nil {
		return types.RunReport{}, err
	}

	runUUID, err := uuid.NewRandom()
	if err != nil {
		return types.RunReport{}, fmt.Errorf("generate run id: %w", err)
	}
	sup := &supervisor{runID: runUUID.String(), state: stateStarting}
	logger.Logger.Infow("Starting run", "runId", sup.runID, "input", cfg.InputFile)

	spec, err := requestLoaderOrDefault(opts.RequestLoader).Load(cfg.InputFile)
	if err != nil {
		return types.RunReport{}, fmt.Errorf("load request file: %w", err)
	}
	spec, err = applyTargetOverride(spec, cfg.TargetURL)
	if err != nil {
		return types.RunReport{}, err
	}

	sender, err := senderFactoryOrDefault(opts.SenderFactory).NewSender(cfg)
	if err != nil {
		return types.RunReport{}, fmt.Errorf("initialize sender: %w", err)
	}

	mode := types.Mode(cfg.Mode)
	var quotas []types.Quota
	var planned uint64
	if mode == types.ModeFixed {
		planned = uint64(cfg.Requests)
		quotas = manager.SplitQuota(planned, cfg.Threads)
	} else {
		quotas = manager.UnlimitedQuota(cfg.Threads)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	registerer := opts.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	collector := metrics.NewPrometheusMetricsCollector(registerer)

	var metricsServer *http.Server
	if cfg.MetricsPort > 0 {
		metricsServer = startMetricsServer(cfg.MetricsPort, gatherer)
		defer shutdownMetricsServer(metricsServer)
	}

	aggregator := manager.NewAggregator()
	stop := manager.NewStopController()

	sup.transition(stateRunning,
		"method", spec.Method,
		"url", spec.URL,
		"mode", mode,
		"threads", cfg.Threads,
		"requests", planned)
	startedAt := time.Now()

	// In-flight requests finish even when ctx is cancelled by a signal; the
	// stop controller is what ends the workers.
	pool := executor.Start(context.WithoutCancel(ctx), executor.Options{
		Spec:      spec,
		Quotas:    quotas,
		Sender:    sender,
		Recorder:  aggregator,
		Stop:      stop,
		Collector: collector,
	})

	reporter := &manager.Reporter{
		Stats:    aggregator,
		Stop:     stop,
		Out:      stdout,
		Interval: cfg.ReportInterval,
		Start:    startedAt,
	}
	reporterDone := make(chan struct{})
	go func() {
		defer close(reporterDone)
		reporter.Run()
	}()

	var operator chan stopReason
	if opts.Stdin != nil {
		fmt.Fprintln(stdout, "Type 'stop' to stop the workers and exit.")
		operator = make(chan stopReason, 1)
		go func() {
			operator <- watchOperator(opts.Stdin, stdout)
		}()
	}

	var reason stopReason
	select {
	case <-pool.Done():
		reason = reasonExhausted
	case reason = <-operator:
	case <-ctx.Done():
		reason = reasonSignal
	}

	sup.transition(stateStopRequested, "reason", reason)
	stop.RequestStop()

	sup.transition(stateDraining, "joinTimeout", cfg.JoinTimeout)
	stragglers := pool.Wait(cfg.JoinTimeout)
	if len(stragglers) > 0 {
		logger.Logger.Warnw("Workers did not exit within the join timeout; abandoning them",
			"runId", sup.runID,
			"workers", stragglers)
	}
	activeWorkers := logWorkerReports(sup.runID, pool.Reports())
	if !waitFor(reporterDone, cfg.JoinTimeout) {
		logger.Logger.Warnw("Reporter did not exit within the join timeout", "runId", sup.runID)
	}

	report := types.RunReport{
		RunID:            sup.runID,
		Target:           spec.URL,
		Method:           spec.Method,
		Mode:             mode,
		Threads:          cfg.Threads,
		PlannedRequests:  planned,
		StartedAt:        startedAt,
		Elapsed:          time.Since(startedAt),
		Stopped:          reason != reasonExhausted,
		ActiveWorkers:    activeWorkers,
		AbandonedWorkers: len(stragglers),
		Snapshot:         aggregator.Snapshot(),
	}
	sup.transition(stateDone, "completed", report.Snapshot.Total)
	printSummary(stdout, report)

	if cfg.ReportURL != "" {
		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportPublishTimeout)
		defer cancel()
		if err := publishReport(publishCtx, cfg.ReportURL, report); err != nil {
			logger.Logger.Warnw("Unable to publish run report", "runId", sup.runID, "error", err)
		}
	}
	return report, nil
}

func applyTargetOverride(spec types.RequestSpec, targetURL string) (types.RequestSpec, error) {
	if targetURL != "" {
		spec.URL = targetURL
	}
	if spec.URL == "" {
		return spec, &ConfigError{Field: "url", Reason: "no target URL in the input file and -url not set"}
	}
	if err := validateTargetURL(spec.URL); err != nil {
		return spec, &ConfigError{Field: "url", Reason: err.Error()}
	}
	return spec, nil
}

// logWorkerReports logs what each joined worker did and returns how many of
// them sent at least one request. Workers with an empty quota are idle.
func logWorkerReports(runID string, reports []worker.Report) int {
	active := 0
	for _, report := range reports {
		if report.Attempted > 0 {
			active++
		}
		logger.Logger.Infow("Worker finished",
			"runId", runID,
			"worker", report.WorkerID,
			"attempted", report.Attempted,
			"failures", report.Failures,
			"stopped", report.Stopped)
	}
	return active
}

func waitFor(done <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func startMetricsServer(port int, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Warnw("Metrics server failed", "port", port, "error", err)
		}
	}()
	return server
}

func shutdownMetricsServer(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Warnw("Unable to gracefully shutdown metrics server", "error", err)
	}
}
