package shape

import (
	"fmt"
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/jonwraymond/ddaccess/tagfilter"
)

const (
	// DefaultStackTraceLines is how many stack trace lines survive truncation.
	DefaultStackTraceLines = 10

	// MaxStringLength is the default rune limit for long free-text fields.
	MaxStringLength = 200

	// FullStackTraceParam is the request flag that disables stack truncation.
	FullStackTraceParam = "full_stack_trace"
)

// StackTraceLines returns the stack trace line limit for a request:
// DefaultStackTraceLines, or 0 (no truncation) when full_stack_trace is set.
func StackTraceLines(params map[string]any) int {
	if full, err := cast.ToBoolE(params[FullStackTraceParam]); err == nil && full {
		return 0
	}
	return DefaultStackTraceLines
}

// TruncateStackTrace keeps the first n lines of trace and notes how many were cut.
// n <= 0 returns trace unchanged.
func TruncateStackTrace(trace string, n int) string {
	if n <= 0 {
		return trace
	}
	lines := strings.Split(trace, "\n")
	if len(lines) <= n {
		return trace
	}
	return fmt.Sprintf("%s\n... (%d more lines)", strings.Join(lines[:n], "\n"), len(lines)-n)
}

// TruncateLongString cuts s to max runes and appends "...".
// max <= 0 returns s unchanged.
func TruncateLongString(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	i, count := 0, 0
	for i = range s {
		if count == max {
			break
		}
		count++
	}
	return s[:i] + "..."
}

// FilterTags filters the tag list at path. The field is removed when no tag
// survives. String lists decoded as []any or []string are both accepted;
// non-string elements are dropped.
func FilterTags(path string, spec tagfilter.Spec) Transform[Record] {
	parts := splitPath(path)
	return func(rec Record) Record {
		out, _ := update(rec, parts, func(v any) (any, edit) {
			if spec.Mode == tagfilter.ModeAll {
				return nil, unchanged
			}
			tags, ok := stringList(v)
			if !ok {
				return nil, unchanged
			}
			kept := spec.Filter(tags)
			if len(kept) == 0 {
				return nil, removed
			}
			if _, isAny := v.([]any); isAny {
				return toAnyList(kept), replaced
			}
			return kept, replaced
		})
		return out
	}
}

// FilterTagMap filters a keyed tag collection at path, such as a host's
// tags grouped by source. The field is removed when no key keeps a tag.
func FilterTagMap(path string, spec tagfilter.Spec) Transform[Record] {
	parts := splitPath(path)
	return func(rec Record) Record {
		out, _ := update(rec, parts, func(v any) (any, edit) {
			if spec.Mode == tagfilter.ModeAll {
				return nil, unchanged
			}
			grouped, ok := stringListMap(v)
			if !ok {
				return nil, unchanged
			}
			kept := spec.FilterMap(grouped)
			if len(kept) == 0 {
				return nil, removed
			}
			if _, isRecord := v.(Record); isRecord {
				m := make(Record, len(kept))
				for k, tags := range kept {
					m[k] = toAnyList(tags)
				}
				return m, replaced
			}
			return kept, replaced
		})
		return out
	}
}

// TruncateLines truncates the multi-line string at path to n lines.
func TruncateLines(path string, n int) Transform[Record] {
	parts := splitPath(path)
	return func(rec Record) Record {
		out, _ := update(rec, parts, func(v any) (any, edit) {
			s, ok := v.(string)
			if !ok {
				return nil, unchanged
			}
			if t := TruncateStackTrace(s, n); t != s {
				return t, replaced
			}
			return nil, unchanged
		})
		return out
	}
}

// TruncateString truncates the string at path to max runes.
func TruncateString(path string, max int) Transform[Record] {
	parts := splitPath(path)
	return func(rec Record) Record {
		out, _ := update(rec, parts, func(v any) (any, edit) {
			s, ok := v.(string)
			if !ok {
				return nil, unchanged
			}
			if t := TruncateLongString(s, max); t != s {
				return t, replaced
			}
			return nil, unchanged
		})
		return out
	}
}

// DropFields removes the fields at paths.
func DropFields(paths ...string) Transform[Record] {
	split := make([][]string, len(paths))
	for i, p := range paths {
		split[i] = splitPath(p)
	}
	return func(rec Record) Record {
		for _, parts := range split {
			rec, _ = update(rec, parts, func(any) (any, edit) {
				return nil, removed
			})
		}
		return rec
	}
}

// StripNulls removes null values and empty strings from the record and every
// nested object. Objects inside arrays are stripped too; array elements
// themselves are kept.
func StripNulls() Transform[Record] {
	return func(rec Record) Record {
		out, _ := stripRecord(rec)
		return out
	}
}

func stripRecord(rec Record) (Record, bool) {
	var out Record
	for k, v := range rec {
		next, drop, changed := stripValue(v)
		if !drop && !changed {
			continue
		}
		if out == nil {
			out = maps.Clone(rec)
		}
		if drop {
			delete(out, k)
		} else {
			out[k] = next
		}
	}
	if out == nil {
		return rec, false
	}
	return out, true
}

func stripValue(v any) (next any, drop, changed bool) {
	switch val := v.(type) {
	case nil:
		return nil, true, false
	case string:
		return val, val == "", false
	case Record:
		r, changed := stripRecord(val)
		return r, false, changed
	case []any:
		var out []any
		for i, elem := range val {
			r, ok := elem.(Record)
			if !ok {
				continue
			}
			stripped, changed := stripRecord(r)
			if !changed {
				continue
			}
			if out == nil {
				out = append([]any(nil), val...)
			}
			out[i] = stripped
		}
		if out == nil {
			return val, false, false
		}
		return out, false, true
	default:
		return v, false, false
	}
}

func stringList(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		return val, true
	case []any:
		out := make([]string, 0, len(val))
		for _, elem := range val {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func stringListMap(v any) (map[string][]string, bool) {
	switch val := v.(type) {
	case map[string][]string:
		return val, true
	case Record:
		out := make(map[string][]string, len(val))
		for k, elem := range val {
			if tags, ok := stringList(elem); ok {
				out[k] = tags
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func toAnyList(tags []string) []any {
	out := make([]any, len(tags))
	for i, t := range tags {
		out[i] = t
	}
	return out
}
