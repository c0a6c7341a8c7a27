package market

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrUnknownProvider is returned when a provider name is not configured.
var ErrUnknownProvider = errors.New("market: unknown provider")

// UpstreamError wraps a failed provider call.
type UpstreamError struct {
	Op         string
	Ticker     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: http status %d: %v", e.Op, e.Ticker, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Ticker, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Temporary reports whether retrying the call may succeed.
func (e *UpstreamError) Temporary() bool {
	switch e.StatusCode {
	case 0,
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusUnauthorized:
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError
}

// DataQualityError reports a response that failed the quality gate.
type DataQualityError struct {
	Reason string
	Rows   int
	Closes int
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("market: data quality %s (rows=%d closes=%d)", e.Reason, e.Rows, e.Closes)
}

// IsRetryable classifies an error raised during a fetch attempt. A request
// deadline is retryable; cancellation is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var dq *DataQualityError
	if errors.As(err, &dq) {
		return true
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	// Unknown transport failures are treated as transient.
	return true
}
