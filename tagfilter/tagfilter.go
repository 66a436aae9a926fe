package tagfilter

import (
	"slices"
	"strings"
)

// Wildcard is the expression that keeps every tag.
const Wildcard = "*"

// Mode selects how a Spec filters.
type Mode int

const (
	// ModeAll keeps every tag.
	ModeAll Mode = iota
	// ModeNone drops every tag.
	ModeNone
	// ModePrefixes keeps tags matching any prefix.
	ModePrefixes
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeNone:
		return "none"
	case ModePrefixes:
		return "prefixes"
	default:
		return "unknown"
	}
}

// Spec is a parsed filter. The zero Spec keeps every tag.
type Spec struct {
	Mode     Mode
	Prefixes []string
}

var (
	// All keeps every tag.
	All = Spec{Mode: ModeAll}
	// None drops every tag.
	None = Spec{Mode: ModeNone}
)

// Prefixes returns a Spec keeping tags that start with any of prefixes.
// Each prefix is trimmed. An empty prefix matches every tag and "*" is a
// literal prefix here, not a wildcard. With no prefixes the Spec is None.
func Prefixes(prefixes ...string) Spec {
	if len(prefixes) == 0 {
		return None
	}
	kept := make([]string, len(prefixes))
	for i, p := range prefixes {
		kept[i] = strings.TrimSpace(p)
	}
	return Spec{Mode: ModePrefixes, Prefixes: kept}
}

// Parse parses a filter expression. Only the exact expressions "*" and ""
// are special; anything else is split on commas.
//
//	"*"                -> All
//	""                 -> None
//	"env:, service:"   -> Prefixes("env:", "service:")
//	"env:,"            -> Prefixes("env:", ""), which keeps every tag
func Parse(expr string) Spec {
	switch expr {
	case Wildcard:
		return All
	case "":
		return None
	}
	return Prefixes(strings.Split(expr, ",")...)
}

// Resolve picks the expression for one request: the explicit one if given,
// else the process default, else All.
func Resolve(explicit, processDefault *string) Spec {
	switch {
	case explicit != nil:
		return Parse(*explicit)
	case processDefault != nil:
		return Parse(*processDefault)
	default:
		return All
	}
}

// Matches reports whether tag survives the filter.
func (s Spec) Matches(tag string) bool {
	switch s.Mode {
	case ModeAll:
		return true
	case ModePrefixes:
		return slices.ContainsFunc(s.Prefixes, func(p string) bool {
			return strings.HasPrefix(tag, p)
		})
	default:
		return false
	}
}

// Filter returns the tags that survive, in input order.
//
// All returns tags itself. Other modes return a new slice, empty but non-nil
// when nothing survives.
func (s Spec) Filter(tags []string) []string {
	switch s.Mode {
	case ModeAll:
		return tags
	case ModePrefixes:
		out := make([]string, 0, len(tags))
		for _, tag := range tags {
			if s.Matches(tag) {
				out = append(out, tag)
			}
		}
		return out
	default:
		return []string{}
	}
}

// FilterMap filters keyed tag collections, such as tags grouped by source.
//
// All returns m itself and None returns nil. For a prefix list each
// collection is filtered and keys with no surviving tags are dropped.
func (s Spec) FilterMap(m map[string][]string) map[string][]string {
	switch s.Mode {
	case ModeAll:
		return m
	case ModePrefixes:
		if m == nil {
			return nil
		}
		out := make(map[string][]string, len(m))
		for key, tags := range m {
			if kept := s.Filter(tags); len(kept) > 0 {
				out[key] = kept
			}
		}
		return out
	default:
		return nil
	}
}

// String renders s back to an expression accepted by Parse.
func (s Spec) String() string {
	switch s.Mode {
	case ModeAll:
		return Wildcard
	case ModePrefixes:
		return strings.Join(s.Prefixes, ",")
	default:
		return ""
	}
}
