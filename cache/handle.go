package cache

import (
	"sync/atomic"
	"time"
)

type entry[T any] struct {
	value     T
	createdAt time.Time
	version   uint64
	issued    atomic.Int64
}

// Handle is a read-only reference to one cached snapshot.
//
// Copying a Handle copies a pointer, never the snapshot. The snapshot stays
// reachable for as long as any Handle to it is held, even after it has been
// superseded, invalidated or evicted. Callers must treat Value as immutable.
type Handle[T any] struct {
	e *entry[T]
}

func newHandle[T any](e *entry[T]) Handle[T] {
	e.issued.Add(1)
	return Handle[T]{e: e}
}

// Valid reports whether h refers to a snapshot.
func (h Handle[T]) Valid() bool {
	return h.e != nil
}

// Value returns the snapshot. The zero Handle returns the zero value.
func (h Handle[T]) Value() T {
	if h.e == nil {
		var zero T
		return zero
	}
	return h.e.value
}

// CreatedAt returns when the snapshot was stored.
func (h Handle[T]) CreatedAt() time.Time {
	if h.e == nil {
		return time.Time{}
	}
	return h.e.createdAt
}

// Version returns the cache-wide version assigned when the snapshot was stored.
// Versions increase monotonically per cache.
func (h Handle[T]) Version() uint64 {
	if h.e == nil {
		return 0
	}
	return h.e.version
}

// Issued returns how many handles to this snapshot the cache has handed out.
func (h Handle[T]) Issued() int64 {
	if h.e == nil {
		return 0
	}
	return h.e.issued.Load()
}
