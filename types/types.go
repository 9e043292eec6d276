package types

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RequestSpec is the single request every worker replays. It is built once at
// startup and only read afterwards.
type RequestSpec struct {
	Method  string
	URL     string
	Headers []Header
	Body    []byte
}

type Header struct {
	Name  string
	Value string
}

var validMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodDelete,
	http.MethodPatch,
	http.MethodHead,
	http.MethodOptions,
	http.MethodConnect,
	http.MethodTrace,
}

// NormalizeMethod upper-cases method and reports whether it is one we send.
func NormalizeMethod(method string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(method))
	for _, m := range validMethods {
		if upper == m {
			return upper, true
		}
	}
	return upper, false
}

// HTTPHeader converts the ordered header list to an http.Header. Repeated
// names become multi-value headers in file order.
func (r RequestSpec) HTTPHeader() http.Header {
	header := make(http.Header, len(r.Headers))
	for _, h := range r.Headers {
		header.Add(h.Name, h.Value)
	}
	return header
}

type FailureKind string

const (
	FailureNone     FailureKind = ""
	FailureConnect  FailureKind = "connect_error"
	FailureTimeout  FailureKind = "timeout"
	FailureProtocol FailureKind = "protocol_error"
)

// FailureStatus is the status bucket transport failures are counted under.
const FailureStatus uint16 = 0

// Outcome is the result of one request attempt. Either Status is a real HTTP
// status code or Failure names why no response was received. Err can be set
// alongside a Status when the response body could not be read in full.
type Outcome struct {
	Status       uint16
	Failure      FailureKind
	Err          error
	Duration     time.Duration
	FirstByte    time.Duration
	ResponseSize int64
}

func (o Outcome) Failed() bool {
	return o.Failure != FailureNone
}

type LatencySummary struct {
	Count      int64   `json:"count"`
	MinMillis  float64 `json:"minMillis"`
	MaxMillis  float64 `json:"maxMillis"`
	MeanMillis float64 `json:"meanMillis"`
	P50Millis  float64 `json:"p50Millis"`
	P90Millis  float64 `json:"p90Millis"`
	P99Millis  float64 `json:"p99Millis"`
}

// Snapshot is one consistent read of the aggregated statistics. Total is
// always the sum of Codes, and Codes[FailureStatus] the sum of Failures.
type Snapshot struct {
	Total    uint64                 `json:"total"`
	Codes    map[uint16]uint64      `json:"codes"`
	Failures map[FailureKind]uint64 `json:"failures"`
	Latency  LatencySummary         `json:"latency"`
}

type Mode string

const (
	ModeFixed      Mode = "fixed"
	ModeContinuous Mode = "continuous"
)

// Quota is the share of the request budget a single worker is responsible for.
type Quota struct {
	Requests  uint64
	Unlimited bool
}

func (q Quota) String() string {
	if q.Unlimited {
		return "unlimited"
	}
	return fmt.Sprintf("%d", q.Requests)
}

type RunReport struct {
	RunID            string        `json:"runId"`
	Target           string        `json:"target"`
	Method           string        `json:"method"`
	Mode             Mode          `json:"mode"`
	Threads          int           `json:"threads"`
	PlannedRequests  uint64        `json:"plannedRequests"`
	StartedAt        time.Time     `json:"startedAt"`
	Elapsed          time.Duration `json:"elapsed"`
	Stopped          bool          `json:"stopped"`
	ActiveWorkers    int           `json:"activeWorkers"`
	AbandonedWorkers int           `json:"abandonedWorkers"`
	Snapshot         Snapshot      `json:"snapshot"`
}
