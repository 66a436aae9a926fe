package shape

import (
	"maps"
	"strings"
)

// Record is a decoded JSON object.
type Record = map[string]any

type edit int

const (
	unchanged edit = iota
	replaced
	removed
)

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// update applies fn to the value at parts and returns a record sharing every
// untouched branch with rec. rec itself is returned when nothing changed.
func update(rec Record, parts []string, fn func(v any) (any, edit)) (Record, bool) {
	if len(parts) == 0 || rec == nil {
		return rec, false
	}
	cur, ok := rec[parts[0]]
	if !ok {
		return rec, false
	}

	var (
		next any
		op   edit
	)
	if len(parts) == 1 {
		next, op = fn(cur)
	} else {
		child, isRecord := cur.(Record)
		if !isRecord {
			return rec, false
		}
		updated, changed := update(child, parts[1:], fn)
		if !changed {
			return rec, false
		}
		next, op = updated, replaced
	}

	switch op {
	case replaced:
		out := maps.Clone(rec)
		out[parts[0]] = next
		return out, true
	case removed:
		out := maps.Clone(rec)
		delete(out, parts[0])
		return out, true
	default:
		return rec, false
	}
}
