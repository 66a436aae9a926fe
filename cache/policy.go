package cache

import (
	"errors"
	"time"
)

const (
	// DefaultTTL is how long a snapshot is served before it reads as absent.
	DefaultTTL = 300 * time.Second

	// DefaultCapacity is the number of keys held before LRU eviction.
	DefaultCapacity = 100
)

// Policy configures a MemoryCache.
type Policy struct {
	// TTL is the snapshot lifetime. Zero disables caching: every Get misses.
	TTL time.Duration

	// Capacity bounds the number of keys in the index.
	// Zero means unbounded.
	Capacity int
}

// DefaultPolicy returns the default caching policy.
// TTL: 300 seconds, Capacity: 100 keys
func DefaultPolicy() Policy {
	return Policy{
		TTL:      DefaultTTL,
		Capacity: DefaultCapacity,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

// Validate checks the policy for negative values.
func (p Policy) Validate() error {
	var errs []error
	if p.TTL < 0 {
		errs = append(errs, errors.New("cache: ttl must not be negative"))
	}
	if p.Capacity < 0 {
		errs = append(errs, errors.New("cache: capacity must not be negative"))
	}
	return errors.Join(errs...)
}

// fresh reports whether a snapshot created at createdAt is still live at now.
func (p Policy) fresh(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < p.TTL
}
