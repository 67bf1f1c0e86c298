// package ratelimit provides a sliding-window limiter for third-party
// lookup calls.
//
// Unlike a token bucket, the window gives a hard "at most max calls in
// any windowMs span" guarantee and exposes its pending history length,
// which the Odesli contract requires.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrZeroLimit is returned by Wait when the limiter was built with max 0.
// A zero limit is a configuration error: the limiter never executes
// rather than hanging forever.
var ErrZeroLimit = fmt.Errorf("rate limiter configured with max 0")

// Limiter enforces at most max executions per sliding window.
// Safe for concurrent use; waiting is cooperative and honors context
// cancellation. State is in-memory only and resets on restart.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	hits   []time.Time
	now    func() time.Time
}

// New creates a sliding-window limiter allowing max calls per window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Pending reports the number of calls recorded inside the current window.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.hits)
}

// Wait blocks until the window has capacity, then records a call.
// Returns ErrZeroLimit immediately when max is 0, or the context error
// if ctx is done before capacity frees up.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.max <= 0 {
		return ErrZeroLimit
	}

	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)

		if len(l.hits) < l.max {
			l.hits = append(l.hits, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.hits[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// evict drops history entries older than the window. Caller holds mu.
func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.hits) && now.Sub(l.hits[i]) > l.window {
		i++
	}
	if i > 0 {
		l.hits = append(l.hits[:0], l.hits[i:]...)
	}
}

// Do runs fn after the limiter grants capacity and returns its result.
func Do[T any](ctx context.Context, l *Limiter, fn func(ctx context.Context) (T, error)) (T, error) {
	if l == nil {
		return fn(ctx)
	}

	var zero T
	if err := l.Wait(ctx); err != nil {
		return zero, err
	}
	return fn(ctx)
}
