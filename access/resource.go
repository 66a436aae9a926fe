package access

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ddaccess/cache"
	"github.com/jonwraymond/ddaccess/observe"
	"github.com/jonwraymond/ddaccess/pagination"
	"github.com/jonwraymond/ddaccess/shape"
)

// ResourceOption configures a Resource.
type ResourceOption[E any] func(*resourceOptions[E])

type resourceOptions[E any] struct {
	shaper    *shape.Shaper[E]
	policy    *cache.Policy
	operation string
}

// WithShaper applies s to every page served by the resource.
func WithShaper[E any](s *shape.Shaper[E]) ResourceOption[E] {
	return func(o *resourceOptions[E]) {
		o.shaper = s
	}
}

// WithPolicy overrides the layer's cache policy for this resource.
func WithPolicy[E any](p cache.Policy) ResourceOption[E] {
	return func(o *resourceOptions[E]) {
		o.policy = &p
	}
}

// WithOperation names the upstream operation in telemetry, e.g. "ListMonitors".
func WithOperation[E any](op string) ResourceOption[E] {
	return func(o *resourceOptions[E]) {
		o.operation = op
	}
}

// Resource serves offset-paginated pages of one upstream resource from a
// snapshot cache.
type Resource[E any] struct {
	name      string
	operation string
	layer     *Layer
	cache     *cache.MemoryCache[[]E]
	orch      *cache.Orchestrator[[]E]
	shaper    *shape.Shaper[E]
}

// NewResource creates a Resource named name on l.
func NewResource[E any](l *Layer, name string, opts ...ResourceOption[E]) (*Resource[E], error) {
	if l == nil {
		return nil, ErrNilLayer
	}
	if name == "" {
		return nil, ErrEmptyResource
	}

	var o resourceOptions[E]
	for _, opt := range opts {
		opt(&o)
	}
	policy := l.policy
	if o.policy != nil {
		policy = *o.policy
	}

	c := cache.NewMemoryCache[[]E](policy, cache.WithClock(l.now))
	orch, err := cache.NewOrchestrator[[]E](c,
		cache.WithRunner(resourceRunner{layer: l, resource: name}),
		cache.WithDedup(l.dedup),
	)
	if err != nil {
		return nil, err
	}

	return &Resource[E]{
		name:      name,
		operation: o.operation,
		layer:     l,
		cache:     c,
		orch:      orch,
		shaper:    o.shaper,
	}, nil
}

// Name returns the resource name.
func (r *Resource[E]) Name() string { return r.name }

// Key derives the cache key for params on this resource.
func (r *Resource[E]) Key(params map[string]any) (string, error) {
	return r.layer.Key(r.name, params)
}

// FetchPage returns page req of the result set stored under key.
//
// Page 0 and forced requests always call fetch and replace the snapshot.
// Later pages are cut from the snapshot while it is live and call fetch
// only on a miss. req is normalized first, so a negative index reads page 0.
// A page past the end of the set is empty, not an error.
func (r *Resource[E]) FetchPage(ctx context.Context, key string, fetch cache.FetchFunc[[]E], req pagination.Request, force bool) (pagination.Result[E], error) {
	req = req.Normalize()
	state := cache.Decide(req.Index, force)
	meta := observe.FetchMeta{
		Resource:  r.name,
		Operation: r.operation,
		Key:       key,
		Page:      req.Index,
		Force:     force,
	}

	h, src, err := r.orch.Load(withMeta(ctx, meta), key, fetch, req.Index, force)

	outcome := observe.OutcomeMiss
	switch {
	case state == cache.StateFreshRequired:
		outcome = observe.OutcomeBypass
	case src == cache.SourceCache:
		outcome = observe.OutcomeHit
	}
	r.layer.mw.Metrics().RecordCache(ctx, r.name, outcome)

	if err != nil {
		return pagination.Result[E]{}, fmt.Errorf("access: fetch %s: %w", r.name, err)
	}

	r.layer.mw.Logger().With(meta).Debug(ctx, "page served",
		observe.Field{Key: "state", Value: state.String()},
		observe.Field{Key: "source", Value: src.String()},
		observe.Field{Key: "version", Value: h.Version()},
	)
	return shape.Page(h.Value(), req, r.shaper), nil
}

// Invalidate drops the snapshot stored under key.
func (r *Resource[E]) Invalidate(key string) {
	r.cache.Invalidate(key)
}

// CleanupExpired sweeps expired snapshots and returns how many were removed.
func (r *Resource[E]) CleanupExpired() int {
	return r.cache.CleanupExpired()
}

// Stats returns the resource cache statistics.
func (r *Resource[E]) Stats() cache.Stats {
	return r.cache.Stats()
}

// Cache returns the resource cache.
func (r *Resource[E]) Cache() *cache.MemoryCache[[]E] {
	return r.cache
}

// FilterTags applies the layer's tag filter resolution to tags.
func (r *Resource[E]) FilterTags(tags []string, expr *string) []string {
	return r.layer.FilterTags(tags, expr)
}

// PaginateCursor fetches one page of a cursor-paginated upstream listing.
func (r *Resource[E]) PaginateCursor(ctx context.Context, fetch pagination.CursorFetchFunc[E], cursor string, size int) (pagination.Result[E], error) {
	return PaginateCursor(ctx, r.layer, r.name, fetch, cursor, size)
}

// resourceRunner routes orchestrator fetches through the layer.
type resourceRunner struct {
	layer    *Layer
	resource string
}

func (rr resourceRunner) Execute(ctx context.Context, op func(context.Context) error) error {
	return rr.layer.run(ctx, metaFrom(ctx, rr.resource), op)
}

// FetchOffsetPage fetches page req from an upstream that slices by offset.
func (r *Resource[E]) FetchOffsetPage(ctx context.Context, fetch OffsetFetchFunc[E], req pagination.Request) (pagination.Result[E], error) {
	return FetchOffsetPage(ctx, r.layer, r.name, fetch, req)
}

// FetchSinglePage fetches up to limit items from a single-page upstream.
func (r *Resource[E]) FetchSinglePage(ctx context.Context, fetch LimitFetchFunc[E], limit int) (pagination.Result[E], error) {
	return FetchSinglePage(ctx, r.layer, r.name, fetch, limit)
}
