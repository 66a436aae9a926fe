package pagination

import (
	"context"
	"errors"
)

const (
	// DefaultPageSize is used when a request does not name a page size.
	DefaultPageSize = 50

	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 1000
)

// ErrNilFetch is returned when a cursor fetch function is nil.
var ErrNilFetch = errors.New("pagination: fetch is nil")

// Request selects one page. Index is 0-based.
type Request struct {
	Index int `json:"page"`
	Size  int `json:"page_size"`
}

// Offset returns the index of the first item on the page.
func (r Request) Offset() int {
	return r.Index * r.Size
}

// Normalize clamps Index to >= 0 and Size to [1, MaxPageSize],
// substituting DefaultPageSize for a missing size.
func (r Request) Normalize() Request {
	if r.Index < 0 {
		r.Index = 0
	}
	if r.Size <= 0 {
		r.Size = DefaultPageSize
	}
	if r.Size > MaxPageSize {
		r.Size = MaxPageSize
	}
	return r
}

// Info describes where a page sits in its result set.
type Info struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    *int `json:"total,omitempty"`
	HasNext  bool `json:"has_next"`

	// NextCursor is the upstream continuation token for cursor pagination.
	NextCursor string `json:"next_cursor,omitempty"`

	// NextOffset is the offset of the next page for offset pagination.
	NextOffset *int `json:"next_offset,omitempty"`

	// Approximate is set when HasNext is inferred rather than known.
	Approximate bool `json:"approximate,omitempty"`
}

// Result is one page of items with its descriptor.
type Result[T any] struct {
	Items []T  `json:"items"`
	Info  Info `json:"pagination"`
}

// Len returns the number of items on the page.
func (r Result[T]) Len() int {
	return len(r.Items)
}

// Paginate returns the window req selects from full.
//
// An out-of-range page is empty with HasNext false, not an error. The
// returned items alias full with their capacity clipped, so appending to
// them never writes into full.
func Paginate[T any](full []T, req Request) Result[T] {
	total := len(full)
	info := Info{
		Page:     req.Index,
		PageSize: req.Size,
		Total:    &total,
	}

	if req.Index < 0 || req.Size <= 0 {
		return Result[T]{Items: []T{}, Info: info}
	}

	start := req.Offset()
	if start >= total {
		return Result[T]{Items: []T{}, Info: info}
	}
	end := min(start+req.Size, total)

	info.HasNext = end < total
	if info.HasNext {
		next := end
		info.NextOffset = &next
	}
	return Result[T]{Items: full[start:end:end], Info: info}
}

// CursorFetchFunc fetches one upstream page starting at cursor.
// An empty next cursor means there are no further pages.
type CursorFetchFunc[T any] func(ctx context.Context, cursor string, size int) (items []T, next string, err error)

// PaginateByCursor fetches the page at cursor and normalizes the upstream
// continuation token. Errors from fetch are returned unchanged.
func PaginateByCursor[T any](ctx context.Context, fetch CursorFetchFunc[T], cursor string, size int) (Result[T], error) {
	if fetch == nil {
		return Result[T]{}, ErrNilFetch
	}

	items, next, err := fetch(ctx, cursor, size)
	if err != nil {
		return Result[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items: items,
		Info: Info{
			PageSize:   size,
			HasNext:    next != "",
			NextCursor: next,
		},
	}, nil
}

// SinglePageHeuristic describes a result from an upstream that returns at
// most limit items and no total.
//
// HasNext is true only when exactly limit items were returned. This can
// report HasNext for an exactly full final page; Approximate is always set.
func SinglePageHeuristic[T any](items []T, limit int) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items: items,
		Info: Info{
			PageSize:    limit,
			HasNext:     limit > 0 && len(items) == limit,
			Approximate: true,
		},
	}
}

// FromUpstreamOffset describes a page the upstream already sliced by offset.
//
// With a known total, HasNext is exact. Without one it falls back to the
// single-page heuristic and the result is marked Approximate.
func FromUpstreamOffset[T any](items []T, req Request, total *int) Result[T] {
	if items == nil {
		items = []T{}
	}
	info := Info{
		Page:     req.Index,
		PageSize: req.Size,
		Total:    total,
	}

	end := req.Offset() + len(items)
	if total != nil {
		info.HasNext = end < *total
	} else {
		info.HasNext = req.Size > 0 && len(items) == req.Size
		info.Approximate = true
	}
	if info.HasNext {
		info.NextOffset = &end
	}
	return Result[T]{Items: items, Info: info}
}
