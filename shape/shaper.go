package shape

import (
	"github.com/jonwraymond/ddaccess/pagination"
)

// Transform returns a shaped copy of item. It must not modify item.
type Transform[T any] func(item T) T

// Shaper applies transforms in order.
type Shaper[T any] struct {
	transforms []Transform[T]
}

// New creates a Shaper. Nil transforms are skipped.
func New[T any](transforms ...Transform[T]) *Shaper[T] {
	s := &Shaper[T]{transforms: make([]Transform[T], 0, len(transforms))}
	for _, t := range transforms {
		if t != nil {
			s.transforms = append(s.transforms, t)
		}
	}
	return s
}

// Len returns the number of transforms.
func (s *Shaper[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.transforms)
}

// Apply shapes one item.
func (s *Shaper[T]) Apply(item T) T {
	if s == nil {
		return item
	}
	for _, t := range s.transforms {
		item = t(item)
	}
	return item
}

// ApplyAll shapes items into a new slice.
func (s *Shaper[T]) ApplyAll(items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = s.Apply(item)
	}
	return out
}

// Page slices the requested window from full, then shapes only the items on it.
// Transforms act per item, so the result equals shaping full first.
func Page[T any](full []T, req pagination.Request, s *Shaper[T]) pagination.Result[T] {
	res := pagination.Paginate(full, req)
	if s.Len() > 0 {
		res.Items = s.ApplyAll(res.Items)
	}
	return res
}
