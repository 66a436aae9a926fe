package access

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonwraymond/ddaccess/cache"
	"github.com/jonwraymond/ddaccess/config"
	"github.com/jonwraymond/ddaccess/observe"
	"github.com/jonwraymond/ddaccess/resilience"
	"github.com/jonwraymond/ddaccess/tagfilter"
)

var (
	// ErrNilLayer is returned when a nil Layer is supplied.
	ErrNilLayer = errors.New("access: layer is nil")

	// ErrEmptyResource is returned when a resource name is empty.
	ErrEmptyResource = errors.New("access: resource name is empty")
)

// Layer holds the dependencies shared by every resource.
// A Layer is immutable after New and safe for concurrent use.
type Layer struct {
	keyer      cache.Keyer
	runner     cache.Runner
	mw         *observe.Middleware
	tagDefault *string
	policy     cache.Policy
	dedup      bool
	now        func() time.Time
}

// Option configures a Layer.
type Option func(*Layer)

// WithKeyer replaces the default SHA-256 keyer.
func WithKeyer(k cache.Keyer) Option {
	return func(l *Layer) {
		l.keyer = k
	}
}

// WithRunner routes every upstream call through r, typically a
// *resilience.Executor.
func WithRunner(r cache.Runner) Option {
	return func(l *Layer) {
		l.runner = r
	}
}

// WithMiddleware records spans, metrics and logs for every upstream call.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(l *Layer) {
		l.mw = mw
	}
}

// WithDefaultTagFilter sets the filter expression used when a request names
// none. Nil keeps every tag.
func WithDefaultTagFilter(expr *string) Option {
	return func(l *Layer) {
		l.tagDefault = expr
	}
}

// WithCachePolicy sets the policy of caches created by NewResource.
func WithCachePolicy(p cache.Policy) Option {
	return func(l *Layer) {
		l.policy = p
	}
}

// WithDedup merges concurrent cache misses for the same key.
func WithDedup(enabled bool) Option {
	return func(l *Layer) {
		l.dedup = enabled
	}
}

// WithClock replaces time.Now in the resource caches.
func WithClock(now func() time.Time) Option {
	return func(l *Layer) {
		l.now = now
	}
}

// New creates a Layer. Without options it retries with the default policy,
// caches with cache.DefaultPolicy and records no telemetry.
func New(opts ...Option) *Layer {
	l := &Layer{
		policy: cache.DefaultPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.keyer == nil {
		l.keyer = cache.NewDefaultKeyer()
	}
	if l.runner == nil {
		l.runner = resilience.NewRetry(resilience.DefaultRetryConfig())
	}
	if l.mw == nil {
		l.mw = observe.NopMiddleware()
	}
	return l
}

// FromConfig creates a Layer from loaded configuration. mw may be nil.
func FromConfig(cfg *config.Config, mw *observe.Middleware, opts ...Option) *Layer {
	base := []Option{
		WithRunner(cfg.Executor()),
		WithCachePolicy(cfg.CachePolicy()),
		WithDedup(cfg.Cache.Dedup),
		WithDefaultTagFilter(cfg.DefaultTagFilter()),
		WithMiddleware(mw),
	}
	return New(append(base, opts...)...)
}

// Key derives the cache key for a query on resource. Paging parameters in
// params do not contribute, so every page of a query shares one key.
func (l *Layer) Key(resource string, params map[string]any) (string, error) {
	if resource == "" {
		return "", ErrEmptyResource
	}
	return l.keyer.Key(resource, params)
}

// TagFilter resolves the filter for one request: expr if given, else the
// process default, else keep everything.
func (l *Layer) TagFilter(expr *string) tagfilter.Spec {
	return tagfilter.Resolve(expr, l.tagDefault)
}

// FilterTags applies the resolved filter to tags.
func (l *Layer) FilterTags(tags []string, expr *string) []string {
	return l.TagFilter(expr).Filter(tags)
}

// FilterTagMap applies the resolved filter to every tag list in m.
func (l *Layer) FilterTagMap(m map[string][]string, expr *string) map[string][]string {
	return l.TagFilter(expr).FilterMap(m)
}

// run executes op through the runner inside the telemetry middleware.
// Every attempt after the first is counted as a retry of the previous
// attempt's error kind.
func (l *Layer) run(ctx context.Context, meta observe.FetchMeta, op func(context.Context) error) error {
	var (
		mu       sync.Mutex
		attempts int
		prev     error
	)
	logger := l.mw.Logger().With(meta)

	return l.mw.Wrap(func(ctx context.Context, meta observe.FetchMeta) error {
		return l.runner.Execute(ctx, func(ctx context.Context) error {
			mu.Lock()
			attempts++
			attempt, last := attempts, prev
			mu.Unlock()

			if attempt > 1 {
				kind := resilience.KindOf(last).String()
				l.mw.Metrics().RecordRetry(ctx, meta.Resource, kind)
				logger.Warn(ctx, "retrying upstream fetch",
					observe.Field{Key: "attempt", Value: attempt},
					observe.Field{Key: "kind", Value: kind},
				)
			}

			err := op(ctx)

			mu.Lock()
			prev = err
			mu.Unlock()
			return err
		})
	})(ctx, meta)
}

// call runs fn through l.run and returns its value. An attempt abandoned by
// its timeout cannot publish a value.
func call[T any](ctx context.Context, l *Layer, meta observe.FetchMeta, fn func(context.Context) (T, error)) (T, error) {
	var (
		mu     sync.Mutex
		result T
	)
	err := l.run(ctx, meta, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
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

// metaKey carries FetchMeta from a resource to its orchestrator's runner.
type metaKey struct{}

func withMeta(ctx context.Context, meta observe.FetchMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

func metaFrom(ctx context.Context, resource string) observe.FetchMeta {
	if meta, ok := ctx.Value(metaKey{}).(observe.FetchMeta); ok {
		return meta
	}
	return observe.FetchMeta{Resource: resource}
}
