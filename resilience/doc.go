// Package resilience guards calls to the upstream observability API.
//
// Every upstream call is classified into a Kind. Transient, rate-limited and
// timeout failures are retried with exponential backoff; authentication and
// malformed-request failures surface immediately. Each attempt runs under its
// own timeout so one hung request cannot consume the whole retry budget.
//
// # Patterns
//
//   - Retry: bounded attempts with exponential backoff (1s, 2s, 4s, ...).
//
//   - Timeout: per-attempt deadline reported as ErrTimeout.
//
//   - Circuit Breaker: stops calling an upstream that keeps failing.
//
//   - Rate Limiter: keeps outbound calls under the upstream's limits.
//
//   - Bulkhead: caps the number of in-flight upstream calls.
//
// # Usage
//
//	retry := resilience.NewRetry(resilience.DefaultRetryConfig())
//
//	monitors, err := resilience.Do(ctx, retry, func(ctx context.Context) ([]Monitor, error) {
//	    return client.ListMonitors(ctx)
//	})
//	if errors.Is(err, resilience.ErrExhaustedRetries) {
//	    // upstream kept failing
//	}
//
// Patterns compose through an Executor:
//
//	executor := resilience.NewExecutor(
//	    resilience.WithRateLimiter(rl),
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	)
//	page, err := resilience.Run(ctx, executor, fetch)
package resilience
