package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int

	// BaseDelay is the wait before the second attempt.
	// Default: 1s
	BaseDelay time.Duration

	// Multiplier grows the wait after each failed attempt.
	// Default: 2.0 (1s, 2s, 4s, ...)
	Multiplier float64

	// MaxDelay caps the wait between attempts.
	// Default: 30s
	MaxDelay time.Duration

	// Jitter adds up to 25% random delay to each wait.
	// Default: false
	Jitter bool

	// AttemptTimeout bounds each individual attempt. A timed-out attempt
	// fails with ErrTimeout, which is retryable.
	// Default: 30s. Negative disables the per-attempt timeout.
	AttemptTimeout time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: IsRetryable (transient, rate-limited and timeout kinds).
	RetryIf func(err error) bool

	// OnRetry is called before each wait with the failed attempt number.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryConfig returns the default retry policy:
// 3 attempts, 1s base delay doubling per attempt, 30s per-attempt timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		Multiplier:     2.0,
		MaxDelay:       30 * time.Second,
		AttemptTimeout: DefaultAttemptTimeout,
		RetryIf:        IsRetryable,
	}
}

// Retry implements bounded retry with exponential backoff.
// A Retry is immutable after construction and safe for concurrent use.
type Retry struct {
	config RetryConfig

	// after is replaced in tests to observe waits without sleeping.
	after func(time.Duration) <-chan time.Time
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	defaults := DefaultRetryConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = defaults.BaseDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = defaults.Multiplier
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	if config.AttemptTimeout == 0 {
		config.AttemptTimeout = defaults.AttemptTimeout
	}
	if config.RetryIf == nil {
		config.RetryIf = defaults.RetryIf
	}

	return &Retry{config: config, after: time.After}
}

// Execute runs the operation with retry logic.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Do(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs op under r and returns its first successful value.
//
// Failures come back as *RetryError, except when ctx itself ends, in which
// case ctx.Err() is returned and no further attempt is made.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := WithTimeout(ctx, r.config.AttemptTimeout, op)
		if err == nil {
			return value, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}

		lastErr = err

		if !r.config.RetryIf(err) {
			return zero, &RetryError{Attempts: attempt, Err: err}
		}

		if attempt >= r.config.MaxAttempts {
			break
		}

		delay := r.calculateDelay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-r.after(delay):
		}
	}

	return zero, &RetryError{Attempts: r.config.MaxAttempts, Exhausted: true, Err: lastErr}
}

// calculateDelay returns the wait after the given failed attempt:
// BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (r *Retry) calculateDelay(attempt int) time.Duration {
	multiplier := math.Pow(r.config.Multiplier, float64(attempt-1))
	delay := time.Duration(float64(r.config.BaseDelay) * multiplier)

	if delay > r.config.MaxDelay || delay < 0 {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter && delay >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	return delay
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}
