package feed

import "slices"

// Wildcard is the label that makes every record visible.
const Wildcard = "*"

// VisibilitySet is an immutable set of visible type labels, or the wildcard.
//
// The zero value is the wildcard. Configuration replaces whole sets rather
// than mutating them, so readers never observe a partially updated set.
type VisibilitySet struct {
	labels map[string]struct{}
	order  []string
	closed bool
}

// AllVisible returns the wildcard set.
func AllVisible() VisibilitySet {
	return VisibilitySet{}
}

// NewVisibilitySet returns a set containing exactly labels.
// An empty label list yields a set that hides everything.
func NewVisibilitySet(labels ...string) VisibilitySet {
	s := VisibilitySet{
		labels: make(map[string]struct{}, len(labels)),
		closed: true,
	}
	for _, l := range labels {
		if _, ok := s.labels[l]; ok {
			continue
		}
		s.labels[l] = struct{}{}
		s.order = append(s.order, l)
	}
	return s
}

// ParseVisibilitySet builds a set from a configured label list.
// A list whose first element is "*" is the wildcard.
func ParseVisibilitySet(labels []string) VisibilitySet {
	if len(labels) > 0 && labels[0] == Wildcard {
		return AllVisible()
	}
	return NewVisibilitySet(labels...)
}

// IsWildcard reports whether every label is visible.
func (s VisibilitySet) IsWildcard() bool {
	return !s.closed
}

// Contains reports whether label passes the set.
func (s VisibilitySet) Contains(label string) bool {
	if !s.closed {
		return true
	}
	_, ok := s.labels[label]
	return ok
}

// Labels returns the configured labels in insertion order, or ["*"].
func (s VisibilitySet) Labels() []string {
	if !s.closed {
		return []string{Wildcard}
	}
	return slices.Clone(s.order)
}

// Equal reports whether both sets admit the same labels.
func (s VisibilitySet) Equal(other VisibilitySet) bool {
	if s.closed != other.closed {
		return false
	}
	if !s.closed {
		return true
	}
	if len(s.labels) != len(other.labels) {
		return false
	}
	for l := range s.labels {
		if _, ok := other.labels[l]; !ok {
			return false
		}
	}
	return true
}
