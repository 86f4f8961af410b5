package testutil

import (
	"sync"
	"time"

	"github.com/roach88/shadowfeed/internal/feed"
)

// RecordingSink records every delivered batch in delivery order.
//
// Thread-safety: all methods are safe for concurrent use.
type RecordingSink struct {
	mu      sync.Mutex
	batches []feed.Batch
	kinds   []feed.Kind
	notify  chan struct{}
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{notify: make(chan struct{}, 1)}
}

// OnBatch implements engine.Sink.
func (s *RecordingSink) OnBatch(kind feed.Kind, batch feed.Batch) {
	s.mu.Lock()
	s.batches = append(s.batches, batch)
	s.kinds = append(s.kinds, kind)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Batches returns a copy of every batch delivered so far.
func (s *RecordingSink) Batches() []feed.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feed.Batch(nil), s.batches...)
}

// BatchesFor returns the delivered batches of kind.
func (s *RecordingSink) BatchesFor(kind feed.Kind) []feed.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []feed.Batch
	for _, b := range s.batches {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

// Kinds returns the kind argument of every OnBatch call.
func (s *RecordingSink) Kinds() []feed.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feed.Kind(nil), s.kinds...)
}

// Len returns the number of batches delivered.
func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// WaitFor blocks until at least n batches were delivered or timeout
// elapses. Returns whether n was reached.
func (s *RecordingSink) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if s.Len() >= n {
			return true
		}
		select {
		case <-s.notify:
		case <-deadline.C:
			return s.Len() >= n
		}
	}
}
