package metrics

import (
	"strconv"
	"time"

	"github.com/PeladoCollado/requester/types"
	"github.com/prometheus/client_golang/prometheus"
)

type SuccessEvent struct {
	Status        int
	ResponseSize  int64
	Duration      time.Duration
	FirstByteTime time.Duration
}

type ErrorEvent struct {
	Kind     types.FailureKind
	ErrMsg   string
	Duration time.Duration
}

type MetricsCollector interface {
	PostSuccess(event SuccessEvent)
	PostFailure(event ErrorEvent)
}

// PostOutcome routes a request outcome to the matching collector call.
func PostOutcome(c MetricsCollector, outcome types.Outcome) {
	if outcome.Failed() {
		msg := ""
		if outcome.Err != nil {
			msg = outcome.Err.Error()
		}
		c.PostFailure(ErrorEvent{Kind: outcome.Failure, ErrMsg: msg, Duration: outcome.Duration})
		return
	}
	c.PostSuccess(SuccessEvent{
		Status:        int(outcome.Status),
		ResponseSize:  outcome.ResponseSize,
		Duration:      outcome.Duration,
		FirstByteTime: outcome.FirstByte,
	})
}

func NewPrometheusMetricsCollector(r prometheus.Registerer) MetricsCollector {
	c := &PrometheusMetricsCollector{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{Name: "request_duration_millis",
			Namespace: "requester",
			Help:      "Request duration",
			Buckets:   timeBuckets()}),
		responseSize: prometheus.NewHistogram(prometheus.HistogramOpts{Name: "response_size_bytes",
			Namespace: "requester",
			Help:      "Response size",
			Buckets:   sizeBuckets()}),
		firstByteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Name: "first_byte_millis",
			Namespace: "requester",
			Help:      "Time to first byte",
			Buckets:   timeBuckets()}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "responses_total",
			Namespace: "requester",
			Help:      "Responses received by status code"}, []string{"code"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "failures_total",
			Namespace: "requester",
			Help:      "Requests that received no response, by failure kind"}, []string{"kind"}),
	}
	r.MustRegister(c.duration, c.responseSize, c.firstByteDuration, c.responses, c.failures)
	return c
}

func timeBuckets() []float64 {
	bucket := float64(10)
	buckets := make([]float64, 0, 204)
	for i := 0; i < 204; i++ {
		buckets = append(buckets, bucket)
		if bucket < 100 {
			bucket += 5
		} else if bucket < 1000 {
			bucket += 25
		} else if bucket < 10000 {
			bucket += 100
		} else if bucket < 60000 {
			bucket += 1000
		} else {
			break
		}
	}
	return buckets
}

const MB = 1 << 20

func sizeBuckets() []float64 {
	bucket := float64(64)
	buckets := make([]float64, 0, 127)
	for bucket < MB {
		buckets = append(buckets, bucket)
		bucket *= 2
	}
	for bucket < 10*MB {
		buckets = append(buckets, bucket)
		bucket += 1024 * 128
	}
	return buckets
}

type PrometheusMetricsCollector struct {
	duration          prometheus.Histogram
	responseSize      prometheus.Histogram
	firstByteDuration prometheus.Histogram
	responses         *prometheus.CounterVec
	failures          *prometheus.CounterVec
}

func (b *PrometheusMetricsCollector) PostSuccess(event SuccessEvent) {
	b.duration.Observe(float64(event.Duration.Milliseconds()))
	b.responseSize.Observe(float64(event.ResponseSize))
	b.firstByteDuration.Observe(float64(event.FirstByteTime.Milliseconds()))
	b.responses.WithLabelValues(strconv.Itoa(event.Status)).Inc()
}

func (b *PrometheusMetricsCollector) PostFailure(event ErrorEvent) {
	b.duration.Observe(float64(event.Duration.Milliseconds()))
	b.failures.WithLabelValues(string(event.Kind)).Inc()
}

// Discard is a collector that drops every event.
type Discard struct{}

func (Discard) PostSuccess(SuccessEvent) {}

func (Discard) PostFailure(ErrorEvent) {}
