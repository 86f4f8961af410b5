package config

import (
	"sync/atomic"

	"github.com/roach88/shadowfeed/internal/feed"
)

// Provider serves the active configuration to the synchronizer.
//
// Reads are lock-free. Each visibility set is replaced as a whole, so a
// reader sees either the old set or the new one, never a mix.
//
// Thread-safety: all methods are safe for concurrent use.
type Provider struct {
	visible map[feed.Kind]*atomic.Pointer[feed.VisibilitySet]
	maxRows atomic.Int64
	changes *feed.Hub[feed.VisibilityChange]
}

// NewProvider creates a provider initialised from cfg.
func NewProvider(cfg Config) *Provider {
	p := &Provider{
		visible: make(map[feed.Kind]*atomic.Pointer[feed.VisibilitySet], len(feed.AllKinds())),
		changes: feed.NewHub[feed.VisibilityChange](),
	}
	for _, k := range feed.AllKinds() {
		ptr := &atomic.Pointer[feed.VisibilitySet]{}
		set := feed.ParseVisibilitySet(cfg.VisibleFor(k))
		ptr.Store(&set)
		p.visible[k] = ptr
	}
	p.SetMaxRows(cfg.MaxRows)
	return p
}

// VisibleKinds returns the current visibility set for kind.
// Unknown kinds are fully visible.
func (p *Provider) VisibleKinds(kind feed.Kind) feed.VisibilitySet {
	ptr, ok := p.visible[kind]
	if !ok {
		return feed.AllVisible()
	}
	return *ptr.Load()
}

// MaxRowsPerFullScan returns the current row cap.
func (p *Provider) MaxRowsPerFullScan() int {
	return int(p.maxRows.Load())
}

// SetMaxRows replaces the row cap. Non-positive values restore the default.
func (p *Provider) SetMaxRows(n int) {
	if n <= 0 {
		n = DefaultMaxRows
	}
	p.maxRows.Store(int64(n))
}

// SetVisible replaces the visibility set for kind and notifies subscribers.
// Returns false, without notifying, when the set is unchanged.
func (p *Provider) SetVisible(kind feed.Kind, set feed.VisibilitySet) bool {
	ptr, ok := p.visible[kind]
	if !ok {
		return false
	}
	if ptr.Load().Equal(set) {
		return false
	}
	ptr.Store(&set)
	p.changes.Publish(feed.VisibilityChange{Kind: kind, Set: set})
	return true
}

// Apply installs a reloaded configuration. Returns the kinds whose
// visibility changed.
func (p *Provider) Apply(cfg Config) []feed.Kind {
	p.SetMaxRows(cfg.MaxRows)

	var changed []feed.Kind
	for _, k := range feed.AllKinds() {
		if p.SetVisible(k, feed.ParseVisibilitySet(cfg.VisibleFor(k))) {
			changed = append(changed, k)
		}
	}
	return changed
}

// Subscribe registers for visibility changes. Changes are never dropped.
// The returned cancel function must be called to release the subscription.
func (p *Provider) Subscribe() (<-chan feed.VisibilityChange, func()) {
	return p.changes.Subscribe()
}

// Close releases every subscription.
func (p *Provider) Close() {
	p.changes.Close()
}
