// Package http sends single requests to the API under test with bounded
// retry. Timeouts and connection failures are retried with linear backoff;
// anything else fails once. Failures come back as an Outcome with status 0
// and an error message, never as a Go error, so a flaky endpoint cannot abort
// a whole run.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/larkops/bittest/packages/format"
)

const (
	// DefaultTimeout is the per-request socket timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of additional attempts after the first.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the base delay between attempts; attempt n waits
	// n times this long.
	DefaultRetryDelay = time.Second

	userAgent = "bittest/1.0"
)

// Executor sends requests to the API under test over one reused session.
type Executor struct {
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	client     *nethttp.Client
	logger     *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithBaseURL sets the base URL that relative request paths are joined to.
func WithBaseURL(base string) Option {
	return func(e *Executor) {
		e.baseURL = base
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) {
		e.client.Timeout = d
	}
}

// WithMaxRetries sets how many additional attempts follow a retryable
// failure.
func WithMaxRetries(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithRetryDelay sets the base backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.retryDelay = d
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor with a connection-reusing session.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		client:     &nethttp.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases idle connections held by the session.
func (e *Executor) Close() {
	e.client.CloseIdleConnections()
}

// Request describes one call to the API under test. URL may be absolute or a
// path relative to the executor's base URL.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Query   map[string]string
}

// Outcome is the four-part result of one request: status code, raw response
// text, elapsed time, and an error message when the request never produced a
// response. A failed request has status 0 and a non-empty Err.
type Outcome struct {
	Status  int
	Body    string
	Elapsed time.Duration
	Err     string
}

// Failed reports whether the request never produced a response.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

// Do sends one request, retrying timeouts and connection failures up to the
// configured maximum with linear backoff. The response body is returned
// unmodified; formatting happens downstream.
func (e *Executor) Do(ctx context.Context, req Request) Outcome {
	target := format.JoinURL(e.baseURL, req.URL)
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + q.Encode()
	}

	attempts := e.maxRetries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		httpReq, err := nethttp.NewRequestWithContext(ctx, strings.ToUpper(req.Method), target, strings.NewReader(req.Body))
		if err != nil {
			return Outcome{Err: fmt.Sprintf("building request: %v", err)}
		}
		httpReq.Header.Set("User-Agent", userAgent)
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}

		e.logger.Info("sending request",
			zap.String("method", httpReq.Method),
			zap.String("url", target),
			zap.Int("attempt", attempt))

		start := time.Now()
		resp, err := e.client.Do(httpReq)
		elapsed := time.Since(start)

		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return Outcome{Err: fmt.Sprintf("reading response: %v", readErr)}
			}
			e.logger.Info("response received",
				zap.Int("status", resp.StatusCode),
				zap.Duration("elapsed", elapsed))
			return Outcome{Status: resp.StatusCode, Body: string(body), Elapsed: elapsed}
		}

		retryable, label := classify(err)
		if !retryable {
			e.logger.Error("request error", zap.String("url", target), zap.Error(err))
			return Outcome{Err: fmt.Sprintf("request error: %v", err)}
		}

		e.logger.Warn("retryable failure",
			zap.String("kind", label),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err))

		if attempt == attempts {
			return Outcome{Err: label}
		}
		time.Sleep(e.retryDelay * time.Duration(attempt))
	}

	// Unreachable: the loop always returns.
	return Outcome{Err: "no attempts made"}
}

// classify splits errors into the two retryable transport classes and
// everything else.
func classify(err error) (retryable bool, label string) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true, "request timed out"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "request timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true, "connection failed"
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true, "connection failed"
	}
	return false, ""
}
