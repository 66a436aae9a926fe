package health

import (
	"context"
	"maps"
	"time"
)

// Status is the health of one component. Larger values are worse.
type Status int

const (
	StatusHealthy Status = iota
	// StatusDegraded still serves requests, e.g. a cache with a poor hit
	// ratio or a circuit probing the upstream.
	StatusDegraded
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status as its name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Worse returns the worse of s and other.
func (s Status) Worse(other Status) Status {
	return max(s, other)
}

// Result is the outcome of one check.
type Result struct {
	Status    Status
	Message   string
	Details   map[string]any
	Duration  time.Duration
	Timestamp time.Time
	Error     error
}

func newResult(status Status, message string, err error) Result {
	return Result{Status: status, Message: message, Error: err, Timestamp: time.Now()}
}

// Healthy returns a healthy result.
func Healthy(message string) Result {
	return newResult(StatusHealthy, message, nil)
}

// Degraded returns a degraded result.
func Degraded(message string) Result {
	return newResult(StatusDegraded, message, nil)
}

// Unhealthy returns an unhealthy result caused by err.
func Unhealthy(message string, err error) Result {
	return newResult(StatusUnhealthy, message, err)
}

// WithDetails returns a copy of r with details merged over its existing ones.
func (r Result) WithDetails(details map[string]any) Result {
	merged := make(map[string]any, len(r.Details)+len(details))
	maps.Copy(merged, r.Details)
	maps.Copy(merged, details)
	r.Details = merged
	return r
}

// Serving reports whether the component can still answer requests.
func (r Result) Serving() bool {
	return r.Status != StatusUnhealthy
}

// Checker reports the health of one component.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc names fn as a Checker.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the checker name.
func (f *CheckerFunc) Name() string { return f.name }

// Check runs the function.
func (f *CheckerFunc) Check(ctx context.Context) Result { return f.fn(ctx) }
