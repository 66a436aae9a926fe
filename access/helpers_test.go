package access

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/ddaccess/observe"
	"github.com/jonwraymond/ddaccess/resilience"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// testObserver records spans, metrics and logs in memory.
type testObserver struct {
	tp     *sdktrace.TracerProvider
	mp     *sdkmetric.MeterProvider
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
	logs   *syncBuffer
	logger observe.Logger
}

func newTestObserver() *testObserver {
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()
	logs := &syncBuffer{}
	return &testObserver{
		tp:     sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)),
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		spans:  spans,
		reader: reader,
		logs:   logs,
		logger: observe.NewLoggerWithWriter("debug", logs),
	}
}

func (o *testObserver) Tracer() trace.Tracer   { return o.tp.Tracer("test") }
func (o *testObserver) Meter() metric.Meter    { return o.mp.Meter("test") }
func (o *testObserver) Logger() observe.Logger { return o.logger }
func (o *testObserver) Shutdown(ctx context.Context) error {
	return nil
}

func (o *testObserver) middleware(t *testing.T) *observe.Middleware {
	t.Helper()
	mw, err := observe.MiddlewareFromObserver(o)
	if err != nil {
		t.Fatalf("MiddlewareFromObserver() error = %v", err)
	}
	return mw
}

// counter sums the points of name whose attributes contain every kv.
func (o *testObserver) counter(t *testing.T, name string, kv ...attribute.KeyValue) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := o.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: data = %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				match := true
				for _, want := range kv {
					if got, ok := dp.Attributes.Value(want.Key); !ok || got != want.Value {
						match = false
						break
					}
				}
				if match {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func (o *testObserver) entries(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(o.logs.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

// fastRetry retries transient failures without meaningful waits.
func fastRetry() *resilience.Retry {
	return resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    time.Millisecond,
	})
}

// countingFetch returns items and counts how often it ran.
func countingFetch(items []int) (func(context.Context) ([]int, error), *atomic.Int32) {
	calls := &atomic.Int32{}
	return func(ctx context.Context) ([]int, error) {
		calls.Add(1)
		return items, nil
	}, calls
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
