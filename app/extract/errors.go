package extract

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a classified extraction service failure. Retryable errors
// (rate limits, 5xx, timeouts, empty results) are worth another
// attempt; the rest (quota exhausted, malformed jobs, explicit job
// failure) fail fast.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Retryable  bool
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("extraction %s failed: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("extraction %s failed: %s", e.Op, e.Message)
}

// IsRetryable reports whether err is an extraction error marked
// retryable. Unknown error types (network failures wrapped by
// net/http) are treated as retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return true
}

// httpError classifies an unexpected HTTP response. 429 and 5xx are
// transient; 402 means quota exhausted; anything else is a malformed
// request we will not recover from by retrying.
func httpError(op string, statusCode int, message string) *Error {
	retryable := statusCode == http.StatusTooManyRequests || statusCode >= 500
	return &Error{
		Op:         op,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
	}
}
