package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CacheOutcome labels a cache decision.
type CacheOutcome string

const (
	// OutcomeHit means a live snapshot was served.
	OutcomeHit CacheOutcome = "hit"
	// OutcomeMiss means the key was absent or expired and the upstream was fetched.
	OutcomeMiss CacheOutcome = "miss"
	// OutcomeBypass means the cache was skipped: page 0 or a forced refresh.
	OutcomeBypass CacheOutcome = "bypass"
)

// Metrics records upstream fetch, cache and retry metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records an upstream fetch with duration and error status.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)

	// RecordCache records one cache decision for resource.
	RecordCache(ctx context.Context, resource string, outcome CacheOutcome)

	// RecordRetry records a retried attempt; kind is the error kind that caused it.
	RecordRetry(ctx context.Context, resource string, kind string)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	totalCount    metric.Int64Counter
	errorCount    metric.Int64Counter
	durationHist  metric.Float64Histogram
	cacheRequests metric.Int64Counter
	retryAttempts metric.Int64Counter
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	totalCount, err := meter.Int64Counter(
		"ddaccess.fetch.total",
		metric.WithDescription("Total number of upstream fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"ddaccess.fetch.errors",
		metric.WithDescription("Total number of failed upstream fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"ddaccess.fetch.duration_ms",
		metric.WithDescription("Upstream fetch duration in milliseconds, retries included"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheRequests, err := meter.Int64Counter(
		"ddaccess.cache.requests",
		metric.WithDescription("Cache decisions by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	retryAttempts, err := meter.Int64Counter(
		"ddaccess.retry.attempts",
		metric.WithDescription("Upstream attempts that were retried"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		totalCount:    totalCount,
		errorCount:    errorCount,
		durationHist:  durationHist,
		cacheRequests: cacheRequests,
		retryAttempts: retryAttempts,
	}, nil
}

// RecordFetch records metrics for an upstream fetch.
func (m *metricsImpl) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("resource", meta.Resource),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("operation", meta.Operation))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

// RecordCache records a cache decision.
func (m *metricsImpl) RecordCache(ctx context.Context, resource string, outcome CacheOutcome) {
	m.cacheRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("outcome", string(outcome)),
	))
}

// RecordRetry records a retried attempt.
func (m *metricsImpl) RecordRetry(ctx context.Context, resource string, kind string) {
	m.retryAttempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("resource", resource),
		attribute.String("kind", kind),
	))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (noopMetrics) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
}
func (noopMetrics) RecordCache(ctx context.Context, resource string, outcome CacheOutcome) {}
func (noopMetrics) RecordRetry(ctx context.Context, resource string, kind string)          {}
