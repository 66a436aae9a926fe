package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecutor_Empty(t *testing.T) {
	e := NewExecutor()

	called := false
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if !called {
		t.Error("operation was not called")
	}
}

func TestExecutor_Accessors(t *testing.T) {
	r := NewRetry(RetryConfig{})
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	e := NewExecutor(WithRetry(r), WithCircuitBreaker(cb))

	if e.Retry() != r {
		t.Error("Retry() did not return the configured retry")
	}
	if e.CircuitBreaker() != cb {
		t.Error("CircuitBreaker() did not return the configured breaker")
	}
}

func TestExecutor_RetryInsideBreaker(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})
	recordWaits(r)
	cb := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})
	e := NewExecutor(WithRetry(r), WithCircuitBreaker(cb))

	var attempts atomic.Int32
	err := e.Execute(context.Background(), func(ctx context.Context) error {
		attempts.Add(1)
		return NewError(KindTransient, "", nil)
	})

	if !errors.Is(err, ErrExhaustedRetries) {
		t.Fatalf("Execute() error = %v, want ErrExhaustedRetries", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
	if cb.State() != StateOpen {
		t.Errorf("breaker state = %v, want open", cb.State())
	}

	err = e.Execute(context.Background(), func(ctx context.Context) error {
		attempts.Add(1)
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, open breaker should not call upstream", attempts.Load())
	}
}

func TestExecutor_TimeoutWithoutRetry(t *testing.T) {
	e := NewExecutor(WithTimeout(10 * time.Millisecond))

	err := e.Execute(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestExecutor_RateLimiterRejectsBeforeUpstream(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	e := NewExecutor(WithRateLimiter(rl), WithBulkhead(NewBulkhead(BulkheadConfig{MaxConcurrent: 1})))

	var calls atomic.Int32
	op := func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}

	if err := e.Execute(context.Background(), op); err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	if err := e.Execute(context.Background(), op); !errors.Is(err, ErrRateLimitExceeded) {
		t.Errorf("second Execute() error = %v, want ErrRateLimitExceeded", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestRun(t *testing.T) {
	r := NewRetry(RetryConfig{MaxAttempts: 3})
	recordWaits(r)
	e := NewExecutor(WithRetry(r))

	var attempts atomic.Int32
	got, err := Run(context.Background(), e, func(ctx context.Context) ([]string, error) {
		if attempts.Add(1) == 1 {
			return nil, NewError(KindRateLimited, "", nil)
		}
		return []string{"a", "b"}, nil
	})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Run() = %v, want 2 items", got)
	}
}

func TestRun_NilExecutor(t *testing.T) {
	got, err := Run(context.Background(), nil, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Errorf("Run() = %d, %v; want 42, nil", got, err)
	}
}

func TestRun_ErrorReturnsZero(t *testing.T) {
	e := NewExecutor()

	got, err := Run(context.Background(), e, func(ctx context.Context) (string, error) {
		return "partial", errors.New("boom")
	})
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if got != "" {
		t.Errorf("Run() = %q, want zero value", got)
	}
}
