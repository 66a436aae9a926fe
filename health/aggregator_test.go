package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func staticChecker(name string, r Result) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result { return r })
}

func TestNewAggregator(t *testing.T) {
	agg := NewAggregator()
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("default Timeout = %v, want 10s", agg.config.Timeout)
	}
	if !agg.config.Parallel {
		t.Error("default Parallel should be true")
	}

	agg = NewAggregator(AggregatorConfig{Timeout: -1})
	if agg.config.Timeout != 10*time.Second {
		t.Errorf("non-positive Timeout = %v, want 10s", agg.config.Timeout)
	}
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register("cache.monitors", staticChecker("a", Healthy("ok")))
	agg.Register("circuit.upstream", staticChecker("b", Healthy("ok")))
	agg.Register("cache.events", staticChecker("c", Healthy("ok")))
	agg.Register("cache.monitors", staticChecker("a2", Healthy("ok")))
	agg.Unregister("circuit.upstream")
	agg.Unregister("missing")

	names := agg.CheckerNames()
	want := []string{"cache.monitors", "cache.events"}
	if len(names) != len(want) {
		t.Fatalf("CheckerNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("CheckerNames()[%d] = %v, want %v", i, names[i], want[i])
		}
	}
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register("cache", staticChecker("cache", Degraded("low hit ratio")))

	result, err := agg.Check(context.Background(), "cache")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v, want ErrCheckerNotFound", err)
	}
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register("a", staticChecker("a", Healthy("ok")))
	agg.Register("b", staticChecker("b", Unhealthy("down", ErrCheckFailed)))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results["b"].Status != StatusUnhealthy {
		t.Errorf("b = %v, want unhealthy", results["b"].Status)
	}
	for name, r := range results {
		if r.Timestamp.IsZero() {
			t.Errorf("%s: Timestamp should be set", name)
		}
	}

	if got := NewAggregator().CheckAll(context.Background()); len(got) != 0 {
		t.Errorf("empty aggregator results = %v, want none", got)
	}
}

func TestAggregator_CheckAllRunsConcurrently(t *testing.T) {
	agg := NewAggregator()
	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		agg.Register(name, NewCheckerFunc(name, func(ctx context.Context) Result {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			running.Add(-1)
			return Healthy("ok")
		}))
	}

	agg.CheckAll(context.Background())
	if peak.Load() < 2 {
		t.Errorf("peak concurrency = %d, want >= 2", peak.Load())
	}
}

func TestAggregator_CheckAllSequential(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: time.Second, Parallel: false})
	var running, peak atomic.Int32
	for _, name := range []string{"a", "b", "c"} {
		agg.Register(name, NewCheckerFunc(name, func(ctx context.Context) Result {
			if n := running.Add(1); n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return Healthy("ok")
		}))
	}

	agg.CheckAll(context.Background())
	if peak.Load() != 1 {
		t.Errorf("peak concurrency = %d, want 1", peak.Load())
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond, Parallel: true})
	agg.Register("slow", NewCheckerFunc("slow", func(ctx context.Context) Result {
		time.Sleep(time.Second)
		return Healthy("late")
	}))

	start := time.Now()
	results := agg.CheckAll(context.Background())
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("CheckAll took %v, want it bounded by the timeout", elapsed)
	}
	if !errors.Is(results["slow"].Error, ErrCheckTimeout) {
		t.Errorf("slow error = %v, want ErrCheckTimeout", results["slow"].Error)
	}
}

func TestAggregator_OverallStatus(t *testing.T) {
	agg := NewAggregator()
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregator_Checker(t *testing.T) {
	agg := NewAggregator()
	agg.Register("a", staticChecker("a", Healthy("ok")))
	agg.Register("b", staticChecker("b", Degraded("slow")))

	checker := agg.Checker()
	if checker.Name() != "aggregate" {
		t.Errorf("Name() = %v, want aggregate", checker.Name())
	}
	result := checker.Check(context.Background())
	if result.Status != StatusDegraded || result.Message != "some checks degraded" {
		t.Errorf("result = %v %q, want degraded", result.Status, result.Message)
	}
	if len(result.Details) != 2 {
		t.Errorf("Details = %v, want 2 entries", result.Details)
	}
}
