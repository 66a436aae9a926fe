package resilience

import (
	"context"
	"sync"
	"time"
)

// Executor composes the guards placed around every upstream call.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds the whole call when no Retry is configured.
// A Retry applies its own per-attempt timeout instead.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// Retry returns the configured retry, or nil.
func (e *Executor) Retry() *Retry {
	return e.retry
}

// CircuitBreaker returns the configured circuit breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs the operation through all configured resilience patterns.
//
// The execution order is:
// 1. Rate Limiter (if configured) - limits request rate
// 2. Bulkhead (if configured) - limits concurrency
// 3. Circuit Breaker (if configured) - stops calling a failing upstream
// 4. Retry (if configured) - retries retryable failures, each attempt timed
// 5. Timeout (if configured and no Retry) - limits execution time
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	execute := op

	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	} else if e.timeout != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.timeout.Execute(ctx, inner)
		}
	}

	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	return execute(ctx)
}

// Run executes op through e and returns its value.
// A nil Executor runs op directly.
func Run[T any](ctx context.Context, e *Executor, op func(context.Context) (T, error)) (T, error) {
	if e == nil {
		return op(ctx)
	}

	var (
		mu     sync.Mutex
		result T
	)
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		// An attempt abandoned by its timeout must not publish its value.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return result, nil
}
