package errors

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryWithResult_SucceedsFirstAttempt(t *testing.T) {
	// Given: a function that succeeds immediately
	calls := 0

	// When: retrying
	got, err := RetryWithResult(context.Background(), fastRetry(3), func() (string, error) {
		calls++
		return "ok", nil
	})

	// Then: one call, value returned
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestRetryWithResult_RecoversAfterFailures(t *testing.T) {
	// Given: a function that fails twice then succeeds
	calls := 0

	got, err := RetryWithResult(context.Background(), fastRetry(5), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	// Then: third call wins
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestRetryWithResult_GivesUpAfterMaxAttempts(t *testing.T) {
	// Given: a function that always fails
	calls := 0
	cause := errors.New("still down")

	_, err := RetryWithResult(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		return 0, cause
	})

	// Then: every attempt was used and the last error is wrapped
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "giving up after 3 attempts")
	assert.True(t, errors.Is(err, cause))
}

func TestRetryWithResult_RetryIfRejectsError(t *testing.T) {
	// Given: a non-retryable error and a predicate that rejects it
	calls := 0
	fatal := errors.New("bad request")
	cfg := fastRetry(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, fatal) }

	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, fatal
	})

	// Then: one call, error returned untouched
	assert.Equal(t, 1, calls)
	assert.Same(t, fatal, err)
}

func TestRetryWithResult_OnRetryObservesEachWait(t *testing.T) {
	// Given: an OnRetry hook
	var attempts []int
	var waits []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			attempts = append(attempts, attempt)
			waits = append(waits, wait)
		},
	}

	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		return 0, errors.New("nope")
	})
	require.Error(t, err)

	// Then: the hook fired between attempts, not after the last one,
	// and the backoff doubled each time
	assert.Equal(t, []int{1, 2, 3}, attempts)
	assert.Equal(t, []time.Duration{
		time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond,
	}, waits)
}

func TestRetryWithResult_MaxDelayCapsBackoff(t *testing.T) {
	var waits []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		OnRetry: func(_ int, _ error, wait time.Duration) {
			waits = append(waits, wait)
		},
	}

	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		return 0, errors.New("nope")
	})
	require.Error(t, err)

	for _, w := range waits {
		assert.LessOrEqual(t, w, 2*time.Millisecond)
	}
}

func TestRetryWithResult_JitterStaysInRange(t *testing.T) {
	base := 10 * time.Millisecond
	var waits []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   base,
		Jitter:      true,
		OnRetry: func(_ int, _ error, wait time.Duration) {
			waits = append(waits, wait)
		},
	}

	_, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		return 0, errors.New("nope")
	})
	require.Error(t, err)

	require.Len(t, waits, 1)
	assert.GreaterOrEqual(t, waits[0], base/2)
	assert.LessOrEqual(t, waits[0], base)
}

func TestRetryWithResult_ContextCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryWithResult(ctx, fastRetry(3), func() (int, error) {
		calls++
		return 0, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestRetryWithResult_ContextCancelledDuringBackoff(t *testing.T) {
	// Given: a long backoff and a context cancelled mid-wait
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: 10 * time.Second}

	start := time.Now()
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := RetryWithResult(ctx, cfg, func() (int, error) {
		return 0, errors.New("nope")
	})

	// Then: cancellation interrupts the wait promptly
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryWithResult_ZeroAttemptsMeansOne(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), RetryConfig{}, func() (int, error) {
		calls++
		return 0, errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
