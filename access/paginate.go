package access

import (
	"context"
	"fmt"

	"github.com/jonwraymond/ddaccess/observe"
	"github.com/jonwraymond/ddaccess/pagination"
)

// OffsetFetchFunc fetches limit items starting at offset. total is nil when
// the upstream does not report one.
type OffsetFetchFunc[E any] func(ctx context.Context, offset, limit int) (items []E, total *int, err error)

// LimitFetchFunc fetches at most limit items from an upstream that returns a
// single page and no continuation.
type LimitFetchFunc[E any] func(ctx context.Context, limit int) ([]E, error)

type cursorPage[E any] struct {
	items []E
	next  string
}

// PaginateCursor fetches the page at cursor from an upstream that paginates
// with continuation tokens. The call is retried and traced like any other
// upstream call but never cached.
func PaginateCursor[E any](ctx context.Context, l *Layer, resource string, fetch pagination.CursorFetchFunc[E], cursor string, size int) (pagination.Result[E], error) {
	if l == nil {
		return pagination.Result[E]{}, ErrNilLayer
	}
	if fetch == nil {
		return pagination.Result[E]{}, pagination.ErrNilFetch
	}

	meta := observe.FetchMeta{Resource: resource}
	page, err := call(ctx, l, meta, func(ctx context.Context) (cursorPage[E], error) {
		items, next, err := fetch(ctx, cursor, size)
		return cursorPage[E]{items: items, next: next}, err
	})
	if err != nil {
		return pagination.Result[E]{}, fmt.Errorf("access: fetch %s: %w", resource, err)
	}

	return pagination.PaginateByCursor(ctx, func(context.Context, string, int) ([]E, string, error) {
		return page.items, page.next, nil
	}, cursor, size)
}

type offsetPage[E any] struct {
	items []E
	total *int
}

// FetchOffsetPage fetches page req from an upstream that slices by offset
// itself. HasNext is exact when the upstream reports a total.
func FetchOffsetPage[E any](ctx context.Context, l *Layer, resource string, fetch OffsetFetchFunc[E], req pagination.Request) (pagination.Result[E], error) {
	if l == nil {
		return pagination.Result[E]{}, ErrNilLayer
	}
	if fetch == nil {
		return pagination.Result[E]{}, pagination.ErrNilFetch
	}

	req = req.Normalize()
	meta := observe.FetchMeta{Resource: resource, Page: req.Index}
	page, err := call(ctx, l, meta, func(ctx context.Context) (offsetPage[E], error) {
		items, total, err := fetch(ctx, req.Offset(), req.Size)
		return offsetPage[E]{items: items, total: total}, err
	})
	if err != nil {
		return pagination.Result[E]{}, fmt.Errorf("access: fetch %s: %w", resource, err)
	}
	return pagination.FromUpstreamOffset(page.items, req, page.total), nil
}

// FetchSinglePage fetches up to limit items. HasNext is approximate: it is
// set only when exactly limit items came back.
func FetchSinglePage[E any](ctx context.Context, l *Layer, resource string, fetch LimitFetchFunc[E], limit int) (pagination.Result[E], error) {
	if l == nil {
		return pagination.Result[E]{}, ErrNilLayer
	}
	if fetch == nil {
		return pagination.Result[E]{}, pagination.ErrNilFetch
	}

	meta := observe.FetchMeta{Resource: resource}
	items, err := call(ctx, l, meta, func(ctx context.Context) ([]E, error) {
		return fetch(ctx, limit)
	})
	if err != nil {
		return pagination.Result[E]{}, fmt.Errorf("access: fetch %s: %w", resource, err)
	}
	return pagination.SinglePageHeuristic(items, limit), nil
}
