package errors

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig controls RetryWithResult.
type RetryConfig struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure; it doubles per
	// attempt up to MaxDelay.
	BaseDelay time.Duration

	// MaxDelay caps the backoff. Zero means uncapped.
	MaxDelay time.Duration

	// Jitter spreads waits over [0.5, 1.0] of the computed delay so
	// parallel workers do not retry in lockstep.
	Jitter bool

	// RetryIf decides whether an error deserves another attempt. Errors
	// it rejects are returned to the caller untouched. Nil retries
	// every error.
	RetryIf func(error) bool

	// OnRetry is called before each wait, for logging. May be nil.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// RetryWithResult runs fn up to cfg.MaxAttempts times with exponential
// backoff between failures. Context cancellation wins over the backoff
// timer and returns ctx.Err.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return zero, err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := cfg.BaseDelay << (attempt - 1)
		if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		if cfg.Jitter {
			wait = time.Duration(float64(wait) * (0.5 + rand.Float64()/2))
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(wait):
		}
	}

	return zero, fmt.Errorf("giving up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
