package access

import (
	"context"

	"github.com/jonwraymond/ddaccess/cache"
	"github.com/jonwraymond/ddaccess/pagination"
)

// PageFetcher serves offset pages from a cached snapshot.
type PageFetcher[E any] interface {
	FetchPage(ctx context.Context, key string, fetch cache.FetchFunc[[]E], req pagination.Request, force bool) (pagination.Result[E], error)
}

// CursorPaginator fetches pages from an upstream with continuation tokens.
type CursorPaginator[E any] interface {
	PaginateCursor(ctx context.Context, fetch pagination.CursorFetchFunc[E], cursor string, size int) (pagination.Result[E], error)
}

// TagFilterer narrows tag lists with a request filter or the process default.
type TagFilterer interface {
	FilterTags(tags []string, expr *string) []string
}

var (
	_ PageFetcher[int]     = (*Resource[int])(nil)
	_ CursorPaginator[int] = (*Resource[int])(nil)
	_ TagFilterer          = (*Resource[int])(nil)
	_ TagFilterer          = (*Layer)(nil)
)
