package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason says why a key left the index without being invalidated.
type EvictReason int

const (
	// EvictCapacity means the key was least recently used when the index
	// exceeded its capacity.
	EvictCapacity EvictReason = iota
	// EvictExpired means the key's snapshot had outlived the TTL.
	EvictExpired
)

// String returns the string representation of the reason.
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Option configures a MemoryCache.
type Option func(*options)

type options struct {
	now     func() time.Time
	onEvict func(key string, reason EvictReason)
}

// WithClock replaces time.Now. Tests use it to move time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithOnEvict registers a callback invoked for every key removed by
// eviction or expiry sweeps. It runs with the cache lock held and must not
// call back into the cache.
func WithOnEvict(fn func(key string, reason EvictReason)) Option {
	return func(o *options) {
		o.onEvict = fn
	}
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Expired   uint64
	Size      int
	Capacity  int
}

// MemoryCache is an in-memory LRU cache of immutable snapshots.
//
// Expired entries read as absent but stay in the index until a Set needs
// the room or CleanupExpired sweeps them.
type MemoryCache[T any] struct {
	mu      sync.Mutex
	policy  Policy
	opts    options
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	pinned  map[string]int
	version uint64

	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64
}

type slot[T any] struct {
	key   string
	entry *entry[T]
}

// NewMemoryCache creates a new in-memory cache with the given policy.
func NewMemoryCache[T any](policy Policy, opts ...Option) *MemoryCache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &MemoryCache[T]{
		policy: policy,
		opts:   o,
		items:  make(map[string]*list.Element),
		order:  list.New(),
		pinned: make(map[string]int),
	}
}

// Get returns a handle to the snapshot for key if it is within the TTL.
// A hit marks the key as most recently used.
func (c *MemoryCache[T]) Get(key string) (Handle[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return Handle[T]{}, false
	}

	s := elem.Value.(*slot[T])
	if !c.policy.fresh(s.entry.createdAt, c.opts.now()) {
		c.misses++
		return Handle[T]{}, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return newHandle(s.entry), true
}

// Set stores value under key as a new version and returns a handle to it.
// Handles to the previous version remain valid. Under a policy that does not
// cache, the handle is returned and nothing is stored.
func (c *MemoryCache[T]) Set(key string, value T) Handle[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.version++
	e := &entry[T]{
		value:     value,
		createdAt: c.opts.now(),
		version:   c.version,
	}

	// A snapshot no Get could ever serve is handed back but not indexed.
	if !c.policy.ShouldCache() {
		if elem, ok := c.items[key]; ok {
			c.order.Remove(elem)
			delete(c.items, key)
		}
		return newHandle(e)
	}

	if elem, ok := c.items[key]; ok {
		elem.Value.(*slot[T]).entry = e
		c.order.MoveToFront(elem)
	} else {
		c.items[key] = c.order.PushFront(&slot[T]{key: key, entry: e})
	}

	if c.overCapacity() {
		c.removeExpired()
	}
	for c.overCapacity() {
		c.evictOne(key)
	}

	return newHandle(e)
}

// Invalidate removes key from the index. Handles already issued stay valid.
func (c *MemoryCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.Remove(elem)
		delete(c.items, key)
	}
}

// Pin protects key from capacity eviction until release is called.
// Pins nest; a key stays protected until every pin is released.
func (c *MemoryCache[T]) Pin(key string) (release func()) {
	c.mu.Lock()
	c.pinned[key]++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.pinned[key] <= 1 {
				delete(c.pinned, key)
				return
			}
			c.pinned[key]--
		})
	}
}

// CleanupExpired removes every expired entry and returns how many were removed.
func (c *MemoryCache[T]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeExpired()
}

// Len returns the number of keys in the index, including expired ones not yet swept.
func (c *MemoryCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Policy returns the cache policy.
func (c *MemoryCache[T]) Policy() Policy {
	return c.policy
}

// Stats returns current cache statistics.
func (c *MemoryCache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Expired:   c.expired,
		Size:      len(c.items),
		Capacity:  c.policy.Capacity,
	}
}

func (c *MemoryCache[T]) overCapacity() bool {
	return c.policy.Capacity > 0 && len(c.items) > c.policy.Capacity
}

func (c *MemoryCache[T]) removeExpired() int {
	now := c.opts.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		s := elem.Value.(*slot[T])
		if !c.policy.fresh(s.entry.createdAt, now) {
			c.remove(elem, EvictExpired)
			removed++
		}
		elem = prev
	}
	return removed
}

// evictOne removes the least recently used key that is neither pinned nor
// keep. When no such key exists the least recently used key other than keep
// goes, pinned or not, so the bound always holds.
func (c *MemoryCache[T]) evictOne(keep string) {
	var fallback *list.Element
	for elem := c.order.Back(); elem != nil; elem = elem.Prev() {
		key := elem.Value.(*slot[T]).key
		if key == keep {
			continue
		}
		if c.pinned[key] == 0 {
			c.remove(elem, EvictCapacity)
			return
		}
		if fallback == nil {
			fallback = elem
		}
	}
	if fallback == nil {
		fallback = c.order.Back()
	}
	c.remove(fallback, EvictCapacity)
}

func (c *MemoryCache[T]) remove(elem *list.Element, reason EvictReason) {
	s := elem.Value.(*slot[T])
	c.order.Remove(elem)
	delete(c.items, s.key)

	switch reason {
	case EvictExpired:
		c.expired++
	case EvictCapacity:
		c.evictions++
	}
	if c.opts.onEvict != nil {
		c.opts.onEvict(s.key, reason)
	}
}

// Ensure MemoryCache implements Cache and Pinner
var (
	_ Cache[int] = (*MemoryCache[int])(nil)
	_ Pinner     = (*MemoryCache[int])(nil)
)
