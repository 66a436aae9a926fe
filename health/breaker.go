package health

import (
	"context"

	"github.com/jonwraymond/ddaccess/resilience"
)

// BreakerReporter is implemented by circuit breakers that expose their counts.
type BreakerReporter interface {
	Name() string
	Metrics() resilience.CircuitBreakerMetrics
}

// BreakerChecker maps an upstream circuit state onto a health status.
// Closed is healthy, half-open is degraded and open is unhealthy.
type BreakerChecker struct {
	cb BreakerReporter
}

// NewBreakerChecker creates a checker for cb.
func NewBreakerChecker(cb BreakerReporter) *BreakerChecker {
	return &BreakerChecker{cb: cb}
}

// Name returns the name of this checker.
func (b *BreakerChecker) Name() string {
	return "circuit." + b.cb.Name()
}

// Check reads the circuit state.
func (b *BreakerChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	m := b.cb.Metrics()
	details := map[string]any{
		"state":                 m.State.String(),
		"requests":              m.Requests,
		"consecutive_failures":  m.ConsecutiveFailures,
		"consecutive_successes": m.ConsecutiveSuccesses,
		"total_failures":        m.TotalFailures,
	}

	switch m.State {
	case resilience.StateOpen:
		return Unhealthy("upstream circuit open", ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("upstream circuit probing").WithDetails(details)
	default:
		return Healthy("upstream circuit closed").WithDetails(details)
	}
}
