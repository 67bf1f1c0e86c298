package transfer

import (
	"context"
	"time"

	"github.com/desertthunder/tracklinker/internal/shared"
)

// RetryPolicy controls retry-with-backoff around provider calls.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	Multiplier float64
}

// DefaultRetryPolicy returns the stock policy: 3 attempts, 500ms base
// delay, doubling each attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   3,
		BaseDelay:  500 * time.Millisecond,
		Multiplier: 2,
	}
}

// Retryable reports whether err is transient enough to retry. Auth and
// mapping failures are permanent; network hiccups and rate limits are
// not.
func Retryable(err error) bool {
	switch shared.Classify(err) {
	case shared.KindNetwork, shared.KindRateLimit:
		return true
	default:
		return false
	}
}

// WithRetry runs op under the policy, backing off between attempts.
// The last error is returned once attempts are exhausted or the error
// is not retryable. Context cancellation cuts the backoff short.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	delay := policy.BaseDelay
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * policy.Multiplier)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !Retryable(err) {
			break
		}
	}

	return zero, lastErr
}
