package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means upstream calls flow normally.
	StateClosed State = iota
	// StateOpen means upstream calls are rejected without being attempted.
	StateOpen
	// StateHalfOpen means a limited number of probe calls are allowed.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func stateFrom(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the upstream in state-change callbacks.
	// Default: "upstream"
	Name string

	// MaxFailures is the number of consecutive upstream failures before opening.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the max probe requests allowed in half-open state.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(from, to State)

	// IsFailure determines if an error counts against the upstream.
	// Default: transient, rate-limited and timeout failures. Auth and
	// malformed-request failures are caller faults and do not trip the circuit.
	IsFailure func(err error) bool
}

// CircuitBreaker stops calling an upstream that keeps failing.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	cb     *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Name == "" {
		config.Name = "upstream"
	}
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = countsAgainstUpstream
	}

	maxFailures := uint32(config.MaxFailures)
	isFailure := config.IsFailure
	onChange := config.OnStateChange

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: uint32(config.HalfOpenMaxRequests),
		Timeout:     config.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !isFailure(err)
		},
	}
	if onChange != nil {
		settings.OnStateChange = func(_ string, from, to gobreaker.State) {
			onChange(stateFrom(from), stateFrom(to))
		}
	}

	return &CircuitBreaker{
		config: config,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Execute runs the operation through the circuit breaker.
// Returns ErrCircuitOpen when the circuit rejects the call.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := cb.cb.Execute(func() (interface{}, error) {
		return nil, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// Name returns the upstream name.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	return stateFrom(cb.cb.State())
}

// Metrics returns current circuit breaker metrics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	counts := cb.cb.Counts()
	return CircuitBreakerMetrics{
		State:                cb.State(),
		Requests:             counts.Requests,
		ConsecutiveFailures:  counts.ConsecutiveFailures,
		ConsecutiveSuccesses: counts.ConsecutiveSuccesses,
		TotalFailures:        counts.TotalFailures,
	}
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	State                State
	Requests             uint32
	ConsecutiveFailures  uint32
	ConsecutiveSuccesses uint32
	TotalFailures        uint32
}
