// Package cache holds fetched upstream result sets between requests.
//
// MemoryCache is a bounded LRU index of immutable snapshots with a TTL.
// Readers receive a Handle, a pointer-sized reference to the snapshot, so
// many concurrent readers of one result set share a single copy. Set never
// edits a snapshot in place; it installs a new version and leaves handles
// already issued untouched.
//
// Orchestrator decides per request whether to fetch fresh data or serve the
// cached snapshot: page 0 and forced refreshes always fetch, later pages are
// served from the cache while the entry is within its TTL. A failed fetch
// never writes to the cache.
//
// DefaultKeyer derives deterministic keys from a resource name and its query
// parameters, ignoring paging parameters.
package cache
