package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks a failure as transient. [Retry] only repeats
// operations whose error wraps one.
type RetryableError struct {
	Err error

	// After, when set, overrides the backoff delay before the next attempt.
	// It carries a server's Retry-After hint.
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Backoff configures [Retry].
type Backoff struct {
	Attempts int           // total attempts, at least 1
	Delay    time.Duration // delay before the second attempt
	MaxDelay time.Duration // cap on the doubled delay; zero means no cap
}

// DefaultBackoff is three attempts starting at 250ms.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 250 * time.Millisecond, MaxDelay: 2 * time.Second}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. The delay doubles after each failure. It returns the
// last error, or ctx.Err() if the context ends while waiting.
func Retry(ctx context.Context, b Backoff, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return lastErr
}

// IsRetryable reports whether err wraps a [RetryableError].
func IsRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}
