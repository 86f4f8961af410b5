package engine

import (
	"sync"

	"github.com/roach88/shadowfeed/internal/feed"
)

// BulkProbe reports whether the backing store for kind is bulk loading.
type BulkProbe func(kind feed.Kind) bool

// refreshState is the per-kind state owned by RefreshGate.
type refreshState struct {
	inFlight bool
	scan     sync.Mutex
}

// RefreshGate admits at most one full pass per kind at a time.
//
// A rejected acquisition is dropped, not queued; the next change
// notification retries. Every successful TryAcquire must be paired with
// exactly one Release on every exit path of the pass.
//
// Thread-safety: all methods are safe for concurrent use.
type RefreshGate struct {
	mu     sync.Mutex
	states map[feed.Kind]*refreshState
	bulk   BulkProbe
}

// NewRefreshGate creates a gate. bulk may be nil when no store ever bulk loads.
func NewRefreshGate(bulk BulkProbe) *RefreshGate {
	g := &RefreshGate{
		states: make(map[feed.Kind]*refreshState, len(feed.AllKinds())),
		bulk:   bulk,
	}
	for _, k := range feed.AllKinds() {
		g.states[k] = &refreshState{}
	}
	return g
}

// TryAcquire admits a full pass for kind. It returns false when a pass is
// already in flight or the store is bulk loading; callers skip silently.
func (g *RefreshGate) TryAcquire(kind feed.Kind) bool {
	return g.acquire(kind) == nil
}

// acquire is TryAcquire with the rejection reason.
func (g *RefreshGate) acquire(kind feed.Kind) error {
	if g.bulk != nil && g.bulk(kind) {
		return newBulkLoading(kind)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[kind]
	if !ok {
		return newUnknownKind(kind)
	}
	if st.inFlight {
		return newGateRejected(kind)
	}
	st.inFlight = true
	return nil
}

// Release ends the pass admitted by TryAcquire. Releasing an idle kind is a no-op.
func (g *RefreshGate) Release(kind feed.Kind) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if st, ok := g.states[kind]; ok {
		st.inFlight = false
	}
}

// InFlight reports whether a full pass for kind is admitted and not yet released.
func (g *RefreshGate) InFlight(kind feed.Kind) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.states[kind]
	return ok && st.inFlight
}

// LockScan takes the per-kind scan lock used by range passes so overlapping
// ranges for one kind never read concurrently. It returns the unlock function.
func (g *RefreshGate) LockScan(kind feed.Kind) func() {
	g.mu.Lock()
	st, ok := g.states[kind]
	g.mu.Unlock()
	if !ok {
		return func() {}
	}

	st.scan.Lock()
	return st.scan.Unlock
}
