package engine

import "github.com/roach88/shadowfeed/internal/feed"

// VisibilityFilter decides whether a record's type label passes to the feed.
//
// Producers take one Snapshot per pass: a configuration change that lands
// mid-pass applies from the next pass, and the change itself triggers that
// pass, so no mixed batch is ever observable.
type VisibilityFilter struct {
	config Config
}

// NewVisibilityFilter creates a filter reading from config.
func NewVisibilityFilter(config Config) *VisibilityFilter {
	return &VisibilityFilter{config: config}
}

// IsVisible reads the current set for kind and tests label against it.
func (f *VisibilityFilter) IsVisible(kind feed.Kind, label string) bool {
	return f.Snapshot(kind).Contains(label)
}

// Snapshot returns the current set for kind.
func (f *VisibilityFilter) Snapshot(kind feed.Kind) feed.VisibilitySet {
	if f.config == nil {
		return feed.AllVisible()
	}
	return f.config.VisibleKinds(kind)
}
