package access

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/jonwraymond/ddaccess/pagination"
	"github.com/jonwraymond/ddaccess/resilience"
)

func intPtr(n int) *int { return &n }

func TestPaginateCursor(t *testing.T) {
	l := New(WithRunner(fastRetry()))
	pages := map[string]struct {
		items []int
		next  string
	}{
		"":   {[]int{1, 2}, "c2"},
		"c2": {[]int{3}, ""},
	}

	var attempts atomic.Int32
	fetch := func(ctx context.Context, cursor string, size int) ([]int, string, error) {
		if attempts.Add(1) == 1 {
			return nil, "", resilience.NewError(resilience.KindTimeout, "search", nil)
		}
		p := pages[cursor]
		return p.items, p.next, nil
	}

	first, err := PaginateCursor(context.Background(), l, "logs", fetch, "", 2)
	if err != nil {
		t.Fatalf("PaginateCursor() error = %v", err)
	}
	if first.Len() != 2 || !first.Info.HasNext || first.Info.NextCursor != "c2" {
		t.Errorf("first page = %+v, want 2 items and cursor c2", first)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2 after a retried timeout", attempts.Load())
	}

	last, err := PaginateCursor(context.Background(), l, "logs", fetch, first.Info.NextCursor, 2)
	if err != nil {
		t.Fatalf("PaginateCursor() error = %v", err)
	}
	if last.Len() != 1 || last.Info.HasNext || last.Info.NextCursor != "" {
		t.Errorf("last page = %+v, want 1 item and no cursor", last)
	}
}

func TestPaginateCursor_Errors(t *testing.T) {
	l := New(WithRunner(fastRetry()))
	fetch := func(ctx context.Context, cursor string, size int) ([]int, string, error) {
		return nil, "", nil
	}

	tests := []struct {
		name     string
		layer    *Layer
		resource string
		fetch    pagination.CursorFetchFunc[int]
		want     error
	}{
		{"nil layer", nil, "logs", fetch, ErrNilLayer},
		{"nil fetch", l, "logs", nil, pagination.ErrNilFetch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PaginateCursor(context.Background(), tt.layer, tt.resource, tt.fetch, "", 10)
			if !errors.Is(err, tt.want) {
				t.Errorf("PaginateCursor() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPaginateCursor_EmptyPage(t *testing.T) {
	l := New(WithRunner(fastRetry()))
	got, err := PaginateCursor(context.Background(), l, "logs",
		func(ctx context.Context, cursor string, size int) ([]int, string, error) {
			return nil, "", nil
		}, "", 10)
	if err != nil {
		t.Fatalf("PaginateCursor() error = %v", err)
	}
	if got.Items == nil || got.Len() != 0 || got.Info.HasNext {
		t.Errorf("PaginateCursor() = %+v, want a non-nil empty final page", got)
	}
}

func TestFetchOffsetPage(t *testing.T) {
	l := New(WithRunner(fastRetry()))
	all := seq(25)

	tests := []struct {
		name        string
		req         pagination.Request
		withTotal   bool
		wantLen     int
		wantHasNext bool
		wantApprox  bool
	}{
		{"first page with total", pagination.Request{Index: 0, Size: 10}, true, 10, true, false},
		{"last page with total", pagination.Request{Index: 2, Size: 10}, true, 5, false, false},
		{"full page without total", pagination.Request{Index: 1, Size: 10}, false, 10, true, true},
		{"short page without total", pagination.Request{Index: 2, Size: 10}, false, 5, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOffset, gotLimit int
			fetch := func(ctx context.Context, offset, limit int) ([]int, *int, error) {
				gotOffset, gotLimit = offset, limit
				end := min(offset+limit, len(all))
				var total *int
				if tt.withTotal {
					total = intPtr(len(all))
				}
				return all[offset:end], total, nil
			}

			got, err := FetchOffsetPage(context.Background(), l, "events", fetch, tt.req)
			if err != nil {
				t.Fatalf("FetchOffsetPage() error = %v", err)
			}
			if gotOffset != tt.req.Offset() || gotLimit != tt.req.Size {
				t.Errorf("upstream called with offset %d limit %d, want %d %d", gotOffset, gotLimit, tt.req.Offset(), tt.req.Size)
			}
			if got.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", got.Len(), tt.wantLen)
			}
			if got.Info.HasNext != tt.wantHasNext {
				t.Errorf("HasNext = %v, want %v", got.Info.HasNext, tt.wantHasNext)
			}
			if got.Info.Approximate != tt.wantApprox {
				t.Errorf("Approximate = %v, want %v", got.Info.Approximate, tt.wantApprox)
			}
		})
	}
}

func TestFetchOffsetPage_Error(t *testing.T) {
	l := New(WithRunner(fastRetry()))
	upstream := resilience.NewError(resilience.KindMalformed, "list", errors.New("HTTP 400"))

	_, err := FetchOffsetPage(context.Background(), l, "events",
		func(ctx context.Context, offset, limit int) ([]int, *int, error) {
			return nil, nil, upstream
		}, pagination.Request{Size: 10})
	if !errors.Is(err, upstream) {
		t.Errorf("FetchOffsetPage() error = %v, want wrapped upstream error", err)
	}
}

func TestFetchSinglePage(t *testing.T) {
	l := New(WithRunner(fastRetry()))

	tests := []struct {
		name        string
		returned    int
		limit       int
		wantHasNext bool
	}{
		{"full page", 100, 100, true},
		{"short page", 42, 100, false},
		{"empty", 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FetchSinglePage(context.Background(), l, "slos",
				func(ctx context.Context, limit int) ([]int, error) {
					return seq(tt.returned), nil
				}, tt.limit)
			if err != nil {
				t.Fatalf("FetchSinglePage() error = %v", err)
			}
			if got.Len() != tt.returned {
				t.Errorf("Len() = %d, want %d", got.Len(), tt.returned)
			}
			if got.Info.HasNext != tt.wantHasNext {
				t.Errorf("HasNext = %v, want %v", got.Info.HasNext, tt.wantHasNext)
			}
			if !got.Info.Approximate {
				t.Error("single-page results should be marked approximate")
			}
		})
	}
}

func TestResource_UncachedPaginators(t *testing.T) {
	obs := newTestObserver()
	l := New(WithRunner(fastRetry()), WithMiddleware(obs.middleware(t)))
	r, _ := NewResource[int](l, "incidents")
	ctx := context.Background()

	if _, err := r.PaginateCursor(ctx, func(ctx context.Context, cursor string, size int) ([]int, string, error) {
		return seq(size), "next", nil
	}, "", 5); err != nil {
		t.Fatalf("PaginateCursor() error = %v", err)
	}
	if _, err := r.FetchOffsetPage(ctx, func(ctx context.Context, offset, limit int) ([]int, *int, error) {
		return seq(limit), intPtr(100), nil
	}, pagination.Request{Index: 1, Size: 5}); err != nil {
		t.Fatalf("FetchOffsetPage() error = %v", err)
	}
	if _, err := r.FetchSinglePage(ctx, func(ctx context.Context, limit int) ([]int, error) {
		return seq(3), nil
	}, 10); err != nil {
		t.Fatalf("FetchSinglePage() error = %v", err)
	}

	if got := r.Stats().Size; got != 0 {
		t.Errorf("cache size = %d, want 0 for uncached paginators", got)
	}
	if got := len(obs.spans.Ended()); got != 3 {
		t.Errorf("spans = %d, want 3", got)
	}
}
