package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature of an upstream fetch that Middleware wraps.
type ExecuteFunc func(ctx context.Context, meta FetchMeta) error

// Middleware wraps upstream fetches with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: the span is carried in the context passed to the wrapped function.
//   - Errors: errors from the wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Metrics returns the middleware's metrics recorder.
func (m *Middleware) Metrics() Metrics { return m.metrics }

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger { return m.logger }

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, meta FetchMeta) error {
		if meta.Resource == "" {
			return ErrMissingResource
		}

		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		err := fn(ctx, meta)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFetch(ctx, meta, duration, err)

		logger := m.logger.With(meta)
		fields := []Field{
			{Key: "page", Value: meta.Page},
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			logger.Error(ctx, "upstream fetch failed", fields...)
		} else {
			logger.Debug(ctx, "upstream fetch completed", fields...)
		}

		return err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
