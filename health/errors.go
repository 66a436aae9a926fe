package health

import "errors"

var (
	// ErrCheckFailed is the generic cause for an unhealthy result.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for a checker that outlived the aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Check for an unregistered name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrCacheOverCapacity means a snapshot cache holds more keys than its bound.
	ErrCacheOverCapacity = errors.New("health: cache over capacity")

	// ErrCircuitOpen means the upstream circuit is rejecting calls.
	ErrCircuitOpen = errors.New("health: upstream circuit open")
)
