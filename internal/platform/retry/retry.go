// Package retry provides a small explicit retry policy consumed by callers
// that talk to flaky collaborators. The policy is separate from the calling
// code so the attempt budget and backoff ladder are directly testable.
package retry

import (
	"context"
	"time"
)

// Policy describes a bounded retry loop with exponential backoff. The first
// retry waits InitialBackoff, each subsequent retry doubles the wait.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// Retryable decides whether an error is worth another attempt. A nil
	// predicate retries nothing.
	Retryable func(error) bool
	// Sleep is injectable for tests; defaults to a context-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is exhausted. The last error is returned as-is so callers can still
// classify it.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	backoff := p.InitialBackoff
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return err
			}
			backoff *= 2
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
