package worker

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/PeladoCollado/requester/types"
)

const (
	TCPDialTimeout        = 5 * time.Second
	TCPKeepAliveInterval  = 30 * time.Second
	TLSHandshakeTimeout   = 10 * time.Second
	IdleConnTimeout       = 90 * time.Second
	ExpectContinueTimeout = time.Second
)

// Sender issues one request and reports how it went. Implementations must be
// safe for concurrent use by every worker.
type Sender interface {
	Send(ctx context.Context, spec types.RequestSpec) types.Outcome
}

type SenderFunc func(ctx context.Context, spec types.RequestSpec) types.Outcome

func (f SenderFunc) Send(ctx context.Context, spec types.RequestSpec) types.Outcome {
	return f(ctx, spec)
}

type ClientOptions struct {
	Connections int
	Timeout     time.Duration
	Insecure    bool
}

// NewClient builds the shared client every worker sends through. Idle
// connections are sized so each worker can keep its own connection alive.
func NewClient(opts ClientOptions) *http.Client {
	connections := opts.Connections
	if connections <= 0 {
		connections = 1
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   TCPDialTimeout,
			KeepAlive: TCPKeepAliveInterval,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          connections * 2,
		MaxIdleConnsPerHost:   connections,
		IdleConnTimeout:       IdleConnTimeout,
		TLSHandshakeTimeout:   TLSHandshakeTimeout,
		ExpectContinueTimeout: ExpectContinueTimeout,
	}
	if opts.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &http.Client{Transport: transport, Timeout: opts.Timeout}
}

// HTTPSender sends the request with a shared http.Client and drains the
// response body so the connection can be reused.
type HTTPSender struct {
	Client *http.Client
}

func NewHTTPSender(client *http.Client) *HTTPSender {
	return &HTTPSender{Client: client}
}

func (h *HTTPSender) Send(ctx context.Context, spec types.RequestSpec) types.Outcome {
	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}
	request, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, body)
	if err != nil {
		return types.Outcome{Failure: types.FailureProtocol, Err: err}
	}
	request.Header = spec.HTTPHeader()
	// net/http sends req.Host, not a Host entry in the header map.
	if host := request.Header.Get("Host"); host != "" {
		request.Host = host
		request.Header.Del("Host")
	}

	start := time.Now()
	response, err := h.Client.Do(request)
	firstByteDuration := time.Since(start)
	if err != nil {
		return types.Outcome{
			Failure:  classifyError(err),
			Err:      err,
			Duration: firstByteDuration,
		}
	}
	defer response.Body.Close()

	// A status line counts as a response even if the body is cut short.
	bytesRead, readErr := io.Copy(io.Discard, response.Body)
	return types.Outcome{
		Status:       uint16(response.StatusCode),
		Err:          readErr,
		Duration:     time.Since(start),
		FirstByte:    firstByteDuration,
		ResponseSize: bytesRead,
	}
}

func classifyError(err error) types.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return types.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.FailureTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return types.FailureConnect
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return types.FailureConnect
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return types.FailureConnect
	}
	return types.FailureProtocol
}
