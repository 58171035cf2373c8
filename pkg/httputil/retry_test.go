package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var fast = Backoff{Attempts: 3, Delay: time.Millisecond}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fast, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("flaky")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad request")
	calls := 0
	err := Retry(context.Background(), fast, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("Retry() error = %v, want %v", err, permanent)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fast, func() error {
		calls++
		return &RetryableError{Err: errors.New("down")}
	})
	if !IsRetryable(err) {
		t.Errorf("Retry() error = %v, want retryable", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), Backoff{}, func() error {
		calls++
		return &RetryableError{Err: errors.New("down")}
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, Backoff{Attempts: 5, Delay: time.Hour}, func() error {
		return &RetryableError{Err: errors.New("down")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}

func TestRetryAfterHint(t *testing.T) {
	start := time.Now()
	calls := 0
	_ = Retry(context.Background(), Backoff{Attempts: 2, Delay: time.Hour}, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errors.New("slow down"), After: time.Millisecond}
		}
		return nil
	})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Retry() waited %v, want the After hint to override Delay", elapsed)
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"abc", 0},
		{"-1", 0},
		{"2", 2 * time.Second},
		{"600", 10 * time.Second},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.in); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
