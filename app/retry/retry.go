package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop: how many attempts, how long to
// wait between them, and which errors are worth retrying at all.
type Policy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(error) bool
}

// Exponential returns a backoff function starting at base and doubling
// per attempt: base, 2*base, 4*base, ...
func Exponential(base time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return base << uint(attempt-1)
	}
}

// Do runs op up to MaxAttempts times. It returns nil on the first
// success, the last error once attempts are exhausted, and immediately
// on a non-retryable error or context cancellation.
func (p Policy) Do(ctx context.Context, op func() error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := time.Duration(0)
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
