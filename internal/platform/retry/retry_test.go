package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOverloaded = errors.New("overloaded")

func policyForTest(delays *[]time.Duration) Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		Retryable:      func(err error) bool { return errors.Is(err, errOverloaded) },
		Sleep: func(_ context.Context, d time.Duration) error {
			*delays = append(*delays, d)
			return nil
		},
	}
}

func TestDo_SucceedsAfterTwoRetries(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := policyForTest(&delays).Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errOverloaded
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_ExhaustsBudget(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := policyForTest(&delays).Do(context.Background(), func(context.Context) error {
		calls++
		return errOverloaded
	})

	assert.ErrorIs(t, err, errOverloaded)
	assert.Equal(t, 3, calls, "no attempt beyond the budget")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDo_NonRetryableAbortsImmediately(t *testing.T) {
	var delays []time.Duration
	calls := 0
	fatal := errors.New("bad request")

	err := policyForTest(&delays).Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		Retryable:      func(error) bool { return true },
	}

	cancel()
	err := p.Do(ctx, func(context.Context) error { return errOverloaded })
	assert.ErrorIs(t, err, context.Canceled)
}
