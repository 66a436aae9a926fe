package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// FetchMeta describes one upstream fetch for telemetry purposes.
type FetchMeta struct {
	Resource  string // Upstream resource, e.g. "monitors" (required)
	Operation string // list|get|query (optional)
	Key       string // Cache key the result is stored under (optional)
	Page      int    // Requested page index
	Force     bool   // Caller asked to bypass the cache
}

// SpanName returns the deterministic span name for this fetch.
// Format: ddaccess.fetch.<resource>
func (m FetchMeta) SpanName() string {
	return "ddaccess.fetch." + m.Resource
}

// Tracer wraps OpenTelemetry tracing with fetch-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an upstream fetch.
	StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// newTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a client span with fetch metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("ddaccess.resource", meta.Resource),
		attribute.Int("ddaccess.page", meta.Page),
		attribute.Bool("ddaccess.force", meta.Force),
		attribute.Bool("ddaccess.error", false),
	}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("ddaccess.operation", meta.Operation))
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("ddaccess.cache_key", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("ddaccess.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta FetchMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
