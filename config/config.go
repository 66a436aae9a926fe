// Package config loads the data-access layer's settings from the
// environment, and optionally a file, and converts them into the
// cache, retry, tag filter and observability types.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/ddaccess/cache"
	"github.com/jonwraymond/ddaccess/observe"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration for the data-access layer.
type Config struct {
	Cache    CacheConfig    `mapstructure:"cache"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Tags     TagsConfig     `mapstructure:"tags"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Log      LogConfig      `mapstructure:"log"`
	Observe  ObserveConfig  `mapstructure:"observe"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	TTLSeconds int  `mapstructure:"ttl_seconds"`
	Capacity   int  `mapstructure:"capacity"`
	Dedup      bool `mapstructure:"dedup"`
}

// RetryConfig holds upstream retry settings.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	Jitter         bool          `mapstructure:"jitter"`
}

// TagsConfig holds the process-wide tag filter.
type TagsConfig struct {
	// DefaultFilter is nil when unset, which keeps every tag.
	DefaultFilter *string `mapstructure:"default_filter"`
}

// UpstreamConfig holds client-side guards on upstream calls.
// Zero Rate or MaxConcurrent disables the guard.
type UpstreamConfig struct {
	Rate          float64       `mapstructure:"rate"`
	Burst         int           `mapstructure:"burst"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	MaxWait       time.Duration `mapstructure:"max_wait"`
}

// BreakerConfig holds circuit breaker settings. Zero MaxFailures disables it.
type BreakerConfig struct {
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ObserveConfig holds telemetry exporter settings.
type ObserveConfig struct {
	TracingExporter string  `mapstructure:"tracing_exporter"`
	MetricsExporter string  `mapstructure:"metrics_exporter"`
	SamplePct       float64 `mapstructure:"sample_pct"`
}

// envBindings maps configuration keys to environment variables.
var envBindings = map[string]string{
	"cache.ttl_seconds":        "DD_CACHE_TTL_SECONDS",
	"cache.capacity":           "DD_CACHE_CAPACITY",
	"cache.dedup":              "DD_CACHE_DEDUP",
	"retry.max_attempts":       "DD_RETRY_MAX_ATTEMPTS",
	"retry.base_delay":         "DD_RETRY_BASE_DELAY",
	"retry.max_delay":          "DD_RETRY_MAX_DELAY",
	"retry.attempt_timeout":    "DD_RETRY_ATTEMPT_TIMEOUT",
	"retry.jitter":             "DD_RETRY_JITTER",
	"tags.default_filter":      "DD_TAG_FILTER",
	"upstream.rate":            "DD_UPSTREAM_RATE",
	"upstream.burst":           "DD_UPSTREAM_BURST",
	"upstream.max_concurrent":  "DD_UPSTREAM_MAX_CONCURRENT",
	"upstream.max_wait":        "DD_UPSTREAM_MAX_WAIT",
	"breaker.max_failures":     "DD_BREAKER_MAX_FAILURES",
	"breaker.reset_timeout":    "DD_BREAKER_RESET_TIMEOUT",
	"log.level":                "LOG_LEVEL",
	"observe.tracing_exporter": "DD_TRACING_EXPORTER",
	"observe.metrics_exporter": "DD_METRICS_EXPORTER",
	"observe.sample_pct":       "DD_TRACING_SAMPLE_PCT",
}

// Load reads configuration from the environment and, when configPath is
// not empty, from that file. Environment variables take precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("cache.ttl_seconds", int(cache.DefaultTTL/time.Second))
	v.SetDefault("cache.capacity", cache.DefaultCapacity)
	v.SetDefault("cache.dedup", false)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "1s")
	v.SetDefault("retry.max_delay", "30s")
	v.SetDefault("retry.attempt_timeout", "30s")
	v.SetDefault("retry.jitter", false)

	v.SetDefault("upstream.rate", 0)
	v.SetDefault("upstream.burst", 10)
	v.SetDefault("upstream.max_concurrent", 0)
	v.SetDefault("upstream.max_wait", "1s")

	v.SetDefault("breaker.max_failures", 0)
	v.SetDefault("breaker.reset_timeout", "30s")

	v.SetDefault("log.level", "warn")

	v.SetDefault("observe.tracing_exporter", "none")
	v.SetDefault("observe.metrics_exporter", "none")
	v.SetDefault("observe.sample_pct", 1.0)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Cache.TTLSeconds < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_seconds must be >= 0, got %d", c.Cache.TTLSeconds))
	}
	if c.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("cache.capacity must be >= 0, got %d", c.Cache.Capacity))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry.base_delay must be > 0, got %v", c.Retry.BaseDelay))
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, fmt.Errorf("retry.max_delay %v is below retry.base_delay %v", c.Retry.MaxDelay, c.Retry.BaseDelay))
	}
	if c.Retry.AttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("retry.attempt_timeout must be > 0, got %v", c.Retry.AttemptTimeout))
	}

	if c.Upstream.Rate < 0 {
		errs = append(errs, fmt.Errorf("upstream.rate must be >= 0, got %v", c.Upstream.Rate))
	}
	if c.Upstream.Rate > 0 && c.Upstream.Burst < 1 {
		errs = append(errs, fmt.Errorf("upstream.burst must be >= 1 when rate limiting, got %d", c.Upstream.Burst))
	}
	if c.Upstream.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("upstream.max_concurrent must be >= 0, got %d", c.Upstream.MaxConcurrent))
	}

	if c.Breaker.MaxFailures < 0 {
		errs = append(errs, fmt.Errorf("breaker.max_failures must be >= 0, got %d", c.Breaker.MaxFailures))
	}

	if !slices.Contains(observe.ValidLogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if !slices.Contains(observe.ValidTracingExporters, c.Observe.TracingExporter) {
		errs = append(errs, fmt.Errorf("observe.tracing_exporter %q is unknown", c.Observe.TracingExporter))
	}
	if !slices.Contains(observe.ValidMetricsExporters, c.Observe.MetricsExporter) {
		errs = append(errs, fmt.Errorf("observe.metrics_exporter %q is unknown", c.Observe.MetricsExporter))
	}
	if c.Observe.SamplePct < observe.MinSamplePct || c.Observe.SamplePct > observe.MaxSamplePct {
		errs = append(errs, fmt.Errorf("observe.sample_pct must be in [0, 1], got %v", c.Observe.SamplePct))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
