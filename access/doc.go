// Package access is the data-access surface that tool handlers call.
//
// A Layer holds the process-scoped pieces: the cache key derivation, the
// guarded upstream executor, telemetry and the default tag filter. A
// Resource[E] adds one snapshot cache per upstream resource and serves
// offset-paginated pages from it:
//
//	layer := access.New(access.WithRunner(cfg.Executor()))
//	monitors, _ := access.NewResource[Monitor](layer, "monitors")
//
//	key, _ := layer.Key("monitors", params)
//	page, err := monitors.FetchPage(ctx, key, listMonitors, pagination.ParseRequest(params), false)
//
// Page 0, or a forced refresh, always reaches the upstream. Later pages are
// cut from the cached snapshot while it is younger than the TTL.
//
// Upstreams that paginate themselves go through PaginateCursor,
// FetchOffsetPage or FetchSinglePage, which bypass the cache but keep the
// retry and telemetry.
package access
