package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrExhaustedRetries matches a RetryError returned after every attempt
	// failed with a retryable error.
	ErrExhaustedRetries = errors.New("resilience: retries exhausted")

	// ErrNonRetryable matches a RetryError returned when an attempt failed
	// with an error that must not be retried.
	ErrNonRetryable = errors.New("resilience: non-retryable failure")

	// ErrTimeout is returned when a single attempt exceeds its timeout.
	ErrTimeout = errors.New("resilience: attempt timed out")

	// ErrCircuitOpen is returned when the upstream circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimitExceeded is returned when the local upstream rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when too many upstream calls are in flight.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")
)

// Kind classifies a failure of an upstream call.
type Kind int

const (
	// KindUnknown is an error that carries no classification.
	KindUnknown Kind = iota
	// KindTransient is a network failure or upstream 5xx.
	KindTransient
	// KindRateLimited is an explicit upstream rate-limit signal.
	KindRateLimited
	// KindTimeout is a timed-out request or attempt.
	KindTimeout
	// KindAuth is an authentication or authorization failure.
	KindAuth
	// KindMalformed is a request the upstream rejected as invalid.
	KindMalformed
	// KindUnavailable is a call rejected locally by a guard (breaker, bulkhead, limiter).
	KindUnavailable
	// KindCanceled is a call abandoned because the caller canceled.
	KindCanceled
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindMalformed:
		return "malformed"
	case KindUnavailable:
		return "unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are retried.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransient, KindRateLimited, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified upstream failure.
//
// Fetch functions supplied by the transport layer return *Error so the
// retry logic can react to the failure without inspecting transport details.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError returns an *Error of the given kind wrapping err.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RetryError is returned by Retry when an operation ultimately failed.
//
// Exhausted distinguishes "every attempt failed with a retryable error" from
// "an attempt failed with an error that is never retried". Err is the last
// observed error, so KindOf(retryErr) still reports the upstream kind.
type RetryError struct {
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *RetryError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("resilience: retries exhausted after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("resilience: non-retryable failure on attempt %d: %v", e.Attempts, e.Err)
}

func (e *RetryError) Unwrap() error {
	return e.Err
}

// Is matches ErrExhaustedRetries or ErrNonRetryable.
func (e *RetryError) Is(target error) bool {
	switch target {
	case ErrExhaustedRetries:
		return e.Exhausted
	case ErrNonRetryable:
		return !e.Exhausted
	default:
		return false
	}
}

// IsExhausted reports whether err is the result of exhausted retries.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhaustedRetries)
}
