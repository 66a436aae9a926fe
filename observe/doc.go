// Package observe provides observability primitives for upstream fetches.
//
// It records a span, fetch counters, a duration histogram and a structured
// log entry around every upstream call, plus counters for cache decisions
// and retry attempts. It performs no I/O beyond exporter setup.
package observe
