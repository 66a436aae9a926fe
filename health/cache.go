package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ddaccess/cache"
)

// StatsReporter is implemented by caches that expose activity counters.
type StatsReporter interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures a CacheChecker.
type CacheCheckerConfig struct {
	// MinHitRatio reports degraded when the hit ratio falls below it.
	// Zero disables the check.
	MinHitRatio float64

	// MinRequests is the number of lookups needed before the hit ratio is judged.
	// Default: 100
	MinRequests uint64
}

// CacheChecker reports the occupancy and hit ratio of a snapshot cache.
type CacheChecker struct {
	name   string
	src    StatsReporter
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker for the cache serving resource.
func NewCacheChecker(resource string, src StatsReporter, config CacheCheckerConfig) *CacheChecker {
	if config.MinRequests == 0 {
		config.MinRequests = 100
	}
	return &CacheChecker{name: "cache." + resource, src: src, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return c.name
}

// Check reads the cache statistics.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	stats := c.src.Stats()
	requests := stats.Hits + stats.Misses
	var ratio float64
	if requests > 0 {
		ratio = float64(stats.Hits) / float64(requests)
	}

	details := map[string]any{
		"size":      stats.Size,
		"capacity":  stats.Capacity,
		"hits":      stats.Hits,
		"misses":    stats.Misses,
		"hit_ratio": ratio,
		"evictions": stats.Evictions,
		"expired":   stats.Expired,
	}

	if stats.Capacity > 0 && stats.Size > stats.Capacity {
		return Unhealthy(
			fmt.Sprintf("cache over capacity: %d/%d entries", stats.Size, stats.Capacity),
			ErrCacheOverCapacity,
		).WithDetails(details)
	}

	if c.config.MinHitRatio > 0 && requests >= c.config.MinRequests && ratio < c.config.MinHitRatio {
		return Degraded(
			fmt.Sprintf("cache hit ratio low: %.1f%%", ratio*100),
		).WithDetails(details)
	}

	return Healthy(
		fmt.Sprintf("cache: %d/%d entries", stats.Size, stats.Capacity),
	).WithDetails(details)
}
