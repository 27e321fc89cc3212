package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	policy := Policy{MaxAttempts: 3}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	policy := Policy{
		MaxAttempts: 3,
		Backoff:     Exponential(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success after retries, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	policy := Policy{
		MaxAttempts: 5,
		Retryable:   func(err error) bool { return !errors.Is(err, permanent) },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return permanent
	})

	if !errors.Is(err, permanent) {
		t.Errorf("Expected permanent error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("transient")
	policy := Policy{
		MaxAttempts: 3,
		Backoff:     Exponential(time.Millisecond),
		Retryable:   func(error) bool { return true },
	}

	calls := 0
	err := policy.Do(context.Background(), func() error {
		calls++
		return transient
	})

	if !errors.Is(err, transient) {
		t.Errorf("Expected last error after exhaustion, got: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := Policy{MaxAttempts: 3}
	err := policy.Do(ctx, func() error { return errors.New("should not run") })

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestExponential_Doubles(t *testing.T) {
	backoff := Exponential(1500 * time.Millisecond)

	first := backoff(1)
	second := backoff(2)
	third := backoff(3)

	if first != 1500*time.Millisecond {
		t.Errorf("Expected base delay for attempt 1, got %v", first)
	}
	if second <= first {
		t.Errorf("Expected delay before attempt 2 (%v) to be strictly greater than before attempt 1 (%v)", second, first)
	}
	if third != 4*first {
		t.Errorf("Expected 4x base for attempt 3, got %v", third)
	}
}
