package cache

import (
	"errors"
	"strings"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrNilFetch   = errors.New("cache: fetch is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Cache is a keyed store of shared, immutable snapshots.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Immutability: a stored value is never modified; Set installs a new
// version and handles already issued keep pointing at the old one.
// - Errors: Get never errors; it returns (Handle{}, false) on miss or expiry.
type Cache[T any] interface {
	// Get returns a handle to the live snapshot for key.
	Get(key string) (Handle[T], bool)

	// Set stores value as a new version and returns a handle to it.
	Set(key string, value T) Handle[T]

	// Invalidate removes key from the index. Idempotent.
	Invalidate(key string)
}

// Pinner is implemented by caches that can protect a key from eviction
// while a fresh value for it is being fetched.
type Pinner interface {
	// Pin protects key until the returned release func is called.
	Pin(key string) (release func())
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
