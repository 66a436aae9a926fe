package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultAttemptTimeout bounds a single upstream attempt.
const DefaultAttemptTimeout = 30 * time.Second

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for one attempt.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout wraps operations with a timeout.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultAttemptTimeout
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a timeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := WithTimeout(ctx, t.config.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// WithTimeout runs op under a derived context that expires after d.
//
// When the deadline passes first, WithTimeout returns ErrTimeout without
// waiting for op; op observes the cancellation through its context. When the
// parent context ends first, the parent's error is returned instead.
// A non-positive d runs op without a deadline.
func WithTimeout[T any](ctx context.Context, d time.Duration, op func(context.Context) (T, error)) (T, error) {
	if d <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		v, err := op(attemptCtx)
		done <- outcome{value: v, err: err}
	}()

	var zero T
	select {
	case out := <-done:
		if out.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return out.value, out.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, ErrTimeout
	}
}
