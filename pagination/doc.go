// Package pagination normalizes upstream paging styles into one page contract.
//
// Three upstream styles are supported:
//
//   - In-memory offset: the full result set is held locally (often from the
//     cache) and Paginate slices the requested window.
//
//   - Cursor: the upstream returns an opaque continuation token.
//     PaginateByCursor reports HasNext when the token is non-empty and never
//     slices locally.
//
//   - Single page: the upstream returns at most a caller-supplied limit with
//     no total. SinglePageHeuristic reports HasNext only when exactly limit
//     items came back. This is a heuristic: an exactly full final page still
//     reports HasNext, and Info.Approximate is set so consumers can tell.
//
// Every style produces a Result carrying the page items and an Info
// descriptor. Results are built per call and never cached.
package pagination
