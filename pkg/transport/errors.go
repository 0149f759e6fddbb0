package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports a failure to reach the upstream at all
// (DNS, connection refused, TLS, request construction).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that the configured timeout elapsed before a response arrived.
type TimeoutError struct {
	Method  string
	Path    string
	Timeout string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request %s %s timed out after %s", e.Method, e.Path, e.Timeout)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UpstreamStatusError is returned for any non-2xx response. Body holds the raw
// upstream payload; Message is the upstream-provided error text when one was found.
type UpstreamStatusError struct {
	Status  int
	Body    string
	Message string
}

func (e *UpstreamStatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = strings.TrimSpace(e.Body)
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.Status, msg)
}

// NotFound reports whether the upstream answered 404.
func (e *UpstreamStatusError) NotFound() bool { return e.Status == http.StatusNotFound }

// StatusOf returns the upstream status carried by err, or 0 when err is not an UpstreamStatusError.
func StatusOf(err error) int {
	var se *UpstreamStatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// IsRetryable reports whether err is a transient failure a caller may retry.
// Upstream 4xx responses are never retryable.
func IsRetryable(err error) bool {
	var te *TransportError
	var to *TimeoutError
	if errors.As(err, &te) || errors.As(err, &to) {
		return true
	}
	status := StatusOf(err)
	return status == http.StatusTooManyRequests || status >= 500
}
