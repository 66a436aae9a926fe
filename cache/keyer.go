package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultPagingParams are the query parameters that select a page rather
// than a result set, and so never contribute to a key.
var DefaultPagingParams = []string{"page", "page_size", "cursor"}

// Keyer derives cache keys from a resource name and its query parameters.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(resource string, params map[string]any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct {
	skip map[string]struct{}
}

// NewDefaultKeyer creates a keyer that ignores pagingParams.
// With no arguments DefaultPagingParams are ignored.
func NewDefaultKeyer(pagingParams ...string) *DefaultKeyer {
	if len(pagingParams) == 0 {
		pagingParams = DefaultPagingParams
	}
	skip := make(map[string]struct{}, len(pagingParams))
	for _, p := range pagingParams {
		skip[p] = struct{}{}
	}
	return &DefaultKeyer{skip: skip}
}

// Key generates a deterministic cache key.
// Format: cache:<resource>:<hash>
// where hash is the hex of the first 16 bytes of SHA-256(canonical JSON(params))
// with paging parameters removed.
func (k *DefaultKeyer) Key(resource string, params map[string]any) (string, error) {
	filtered := make(map[string]any, len(params))
	for name, v := range params {
		if _, paging := k.skip[name]; paging {
			continue
		}
		filtered[name] = v
	}

	canonical, err := canonicalize(filtered)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params for %s: %w", resource, err)
	}

	sum := sha256.Sum256(canonical)
	key := fmt.Sprintf("cache:%s:%s", resource, hex.EncodeToString(sum[:16]))
	if err := ValidateKey(key); err != nil {
		return "", fmt.Errorf("cache: key for %s: %w", resource, err)
	}
	return key, nil
}

// canonicalize produces a deterministic JSON representation of v.
// Nested objects are written with sorted keys.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := []byte{'{'}
	for i, k := range keys {
		if i > 0 {
			out = append(out, ',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		out = append(out, name...)
		out = append(out, ':')
		out = append(out, val...)
	}
	return append(out, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	out := []byte{'['}
	for i, v := range s {
		if i > 0 {
			out = append(out, ',')
		}
		val, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		out = append(out, val...)
	}
	return append(out, ']'), nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
