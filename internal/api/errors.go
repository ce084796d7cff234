package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a paper identifier does not resolve.
// The scheduler treats it as terminal for that paper: the node is marked
// failed and never retried.
var ErrNotFound = errors.New("paper not found")

// RateLimitedError is returned on HTTP 429 responses. RetryAfter carries
// the server's hint when one was provided, zero otherwise.
type RateLimitedError struct {
	// RetryAfter is the server-suggested wait before the next attempt.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by API (retry after %s)", e.RetryAfter)
	}
	return "rate limited by API"
}

// TransientError wraps network failures and server-side errors that are
// worth retrying: connection resets, timeouts, and 5xx responses.
type TransientError struct {
	// Cause is the underlying failure.
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient API failure: %v", e.Cause)
}

// Unwrap returns the underlying failure for errors.Is/As.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether err is worth another attempt.
// Rate limits and transient failures are retryable; not-found and
// everything else is terminal.
func IsRetryable(err error) bool {
	var rateLimited *RateLimitedError
	if errors.As(err, &rateLimited) {
		return true
	}
	var transient *TransientError
	return errors.As(err, &transient)
}

// retryAfterHint extracts the server's wait hint from err, zero if none.
func retryAfterHint(err error) time.Duration {
	var rateLimited *RateLimitedError
	if errors.As(err, &rateLimited) {
		return rateLimited.RetryAfter
	}
	return 0
}
