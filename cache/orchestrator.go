package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is the per-request cache decision.
type State int

const (
	// StateFreshRequired means the upstream must be fetched: page 0 or a forced refresh.
	StateFreshRequired State = iota
	// StateCacheEligible means a live cached snapshot may be served.
	StateCacheEligible
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateFreshRequired:
		return "fresh_required"
	case StateCacheEligible:
		return "cache_eligible"
	default:
		return "unknown"
	}
}

// Decide returns the cache decision for a request.
// Page 0 always requires a fresh fetch, as does force.
func Decide(pageIndex int, force bool) State {
	if force || pageIndex <= 0 {
		return StateFreshRequired
	}
	return StateCacheEligible
}

// Source says where a Load result came from.
type Source int

const (
	// SourceFetch means the upstream was called for this request.
	SourceFetch Source = iota
	// SourceCache means a cached snapshot was served without an upstream call.
	SourceCache
	// SourceShared means the request joined another request's in-flight fetch.
	SourceShared
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceFetch:
		return "fetch"
	case SourceCache:
		return "cache"
	case SourceShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Runner executes an upstream call, typically with retries.
// *resilience.Retry and *resilience.Executor satisfy it.
type Runner interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// FetchFunc loads the full result set from the upstream.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorOptions)

type orchestratorOptions struct {
	runner Runner
	dedup  bool
}

// WithRunner routes every fetch through r.
func WithRunner(r Runner) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.runner = r
	}
}

// WithDedup merges concurrent cache-eligible misses for the same key into a
// single upstream fetch. Fresh-required requests are never merged.
func WithDedup(enabled bool) OrchestratorOption {
	return func(o *orchestratorOptions) {
		o.dedup = enabled
	}
}

// Orchestrator composes a Cache with an upstream fetch.
type Orchestrator[T any] struct {
	cache  Cache[T]
	runner Runner
	group  *singleflight.Group
}

// NewOrchestrator creates an orchestrator over c.
func NewOrchestrator[T any](c Cache[T], opts ...OrchestratorOption) (*Orchestrator[T], error) {
	if c == nil {
		return nil, ErrNilCache
	}
	var o orchestratorOptions
	for _, opt := range opts {
		opt(&o)
	}
	orch := &Orchestrator[T]{cache: c, runner: o.runner}
	if o.dedup {
		orch.group = &singleflight.Group{}
	}
	return orch, nil
}

// Cache returns the underlying cache.
func (o *Orchestrator[T]) Cache() Cache[T] {
	return o.cache
}

// Load returns the full result set for key.
//
// When Decide reports StateFreshRequired the upstream is fetched and the
// result stored. Otherwise a live snapshot is served if present, and a miss
// falls back to the same fetch-and-store path. A failed fetch leaves the
// cache untouched.
func (o *Orchestrator[T]) Load(ctx context.Context, key string, fetch FetchFunc[T], pageIndex int, force bool) (Handle[T], Source, error) {
	if fetch == nil {
		return Handle[T]{}, SourceFetch, ErrNilFetch
	}
	if err := ValidateKey(key); err != nil {
		return Handle[T]{}, SourceFetch, err
	}

	if Decide(pageIndex, force) == StateFreshRequired {
		if p, ok := o.cache.(Pinner); ok {
			release := p.Pin(key)
			defer release()
		}
		h, err := o.fetchAndStore(ctx, key, fetch)
		return h, SourceFetch, err
	}

	if h, ok := o.cache.Get(key); ok {
		return h, SourceCache, nil
	}

	if o.group != nil {
		return o.loadShared(ctx, key, fetch)
	}
	h, err := o.fetchAndStore(ctx, key, fetch)
	return h, SourceFetch, err
}

func (o *Orchestrator[T]) fetchAndStore(ctx context.Context, key string, fetch FetchFunc[T]) (Handle[T], error) {
	v, err := o.run(ctx, fetch)
	if err != nil {
		return Handle[T]{}, err
	}
	return o.cache.Set(key, v), nil
}

// loadShared joins or starts the single in-flight fetch for key. The shared
// fetch is detached from any one caller's cancellation; each caller still
// stops waiting when its own context ends.
func (o *Orchestrator[T]) loadShared(ctx context.Context, key string, fetch FetchFunc[T]) (Handle[T], Source, error) {
	detached := context.WithoutCancel(ctx)
	leader := false

	ch := o.group.DoChan(key, func() (any, error) {
		leader = true
		// A concurrent flight may have stored the key between our miss and now.
		if h, ok := o.cache.Get(key); ok {
			return h, nil
		}
		return o.fetchAndStore(detached, key, fetch)
	})

	select {
	case <-ctx.Done():
		return Handle[T]{}, SourceShared, ctx.Err()
	case res := <-ch:
		src := SourceShared
		if leader {
			src = SourceFetch
		}
		if res.Err != nil {
			return Handle[T]{}, src, res.Err
		}
		return res.Val.(Handle[T]), src, nil
	}
}

func (o *Orchestrator[T]) run(ctx context.Context, fetch FetchFunc[T]) (T, error) {
	if o.runner == nil {
		return fetch(ctx)
	}

	var (
		mu     sync.Mutex
		result T
	)
	err := o.runner.Execute(ctx, func(ctx context.Context) error {
		v, err := fetch(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		// An attempt abandoned by its timeout must not publish its value.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return result, nil
}
