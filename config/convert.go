package config

import (
	"time"

	"github.com/jonwraymond/ddaccess/cache"
	"github.com/jonwraymond/ddaccess/observe"
	"github.com/jonwraymond/ddaccess/resilience"
	"github.com/jonwraymond/ddaccess/tagfilter"
)

// CachePolicy returns the snapshot cache policy.
func (c *Config) CachePolicy() cache.Policy {
	return cache.Policy{
		TTL:      time.Duration(c.Cache.TTLSeconds) * time.Second,
		Capacity: c.Cache.Capacity,
	}
}

// RetryConfig returns the upstream retry policy.
func (c *Config) RetryConfig() resilience.RetryConfig {
	rc := resilience.DefaultRetryConfig()
	rc.MaxAttempts = c.Retry.MaxAttempts
	rc.BaseDelay = c.Retry.BaseDelay
	rc.MaxDelay = c.Retry.MaxDelay
	rc.AttemptTimeout = c.Retry.AttemptTimeout
	rc.Jitter = c.Retry.Jitter
	return rc
}

// DefaultTagFilter returns the process-wide filter expression, or nil when unset.
func (c *Config) DefaultTagFilter() *string {
	return c.Tags.DefaultFilter
}

// TagFilter resolves the filter used when a request names none.
func (c *Config) TagFilter() tagfilter.Spec {
	return tagfilter.Resolve(nil, c.Tags.DefaultFilter)
}

// Executor builds the guard chain around upstream calls. Retry is always
// present; the rate limiter, bulkhead and circuit breaker only when enabled.
func (c *Config) Executor() *resilience.Executor {
	opts := []resilience.ExecutorOption{
		resilience.WithRetry(resilience.NewRetry(c.RetryConfig())),
	}

	if c.Upstream.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        c.Upstream.Rate,
			Burst:       c.Upstream.Burst,
			WaitOnLimit: true,
			MaxWait:     c.Upstream.MaxWait,
		})))
	}

	if c.Upstream.MaxConcurrent > 0 {
		opts = append(opts, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: c.Upstream.MaxConcurrent,
			MaxWait:       c.Upstream.MaxWait,
		})))
	}

	if c.Breaker.MaxFailures > 0 {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:         "upstream",
			MaxFailures:  c.Breaker.MaxFailures,
			ResetTimeout: c.Breaker.ResetTimeout,
		})))
	}

	return resilience.NewExecutor(opts...)
}

// ObserveConfig returns the telemetry configuration for serviceName.
func (c *Config) ObserveConfig(serviceName, version string) observe.Config {
	return observe.Config{
		ServiceName: serviceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Observe.TracingExporter != "none" && c.Observe.TracingExporter != "",
			Exporter:  c.Observe.TracingExporter,
			SamplePct: c.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Observe.MetricsExporter != "none" && c.Observe.MetricsExporter != "",
			Exporter: c.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
		},
	}
}
