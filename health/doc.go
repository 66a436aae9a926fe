// Package health reports whether the data-access layer can serve requests.
//
// A Checker reports Healthy, Degraded or Unhealthy. CacheChecker watches a
// snapshot cache's hit ratio and occupancy; BreakerChecker reports the
// upstream circuit state. An Aggregator runs registered checkers
// concurrently under one deadline and folds their results into an overall
// status:
//
//	agg := health.NewAggregator()
//	agg.Register("cache.monitors", health.NewCacheChecker("monitors", monitors, health.CacheCheckerConfig{}))
//	agg.Register("upstream", health.NewBreakerChecker(breaker))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
package health
