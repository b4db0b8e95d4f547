package structs

import (
	"cmp"
	"slices"

	"golang.org/x/exp/maps"
)

// Set is an unordered collection of distinct values. The zero value is not
// usable; build one with NewSet.
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s Set[T]) Add(v T)    { s[v] = struct{}{} }
func (s Set[T]) Remove(v T) { delete(s, v) }
func (s Set[T]) Size() int  { return len(s) }

func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members of s in ascending order.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	keys := maps.Keys(s)
	slices.Sort(keys)
	return keys
}
