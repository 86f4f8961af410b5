package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

// MemorySource is an in-memory backing collection for one kind.
//
// Mutating helpers (Append, Update, Replace) publish the matching change
// notification, like a real store. Tests can inject read failures, hold
// reads open to simulate a slow pass, and inspect which rows were read.
//
// Thread-safety: all methods are safe for concurrent use.
type MemorySource struct {
	kind feed.Kind
	hub  *feed.Hub[feed.Change]

	mu      sync.Mutex
	rows    []Row
	bulk    bool
	failRow int
	failErr error
	hold    chan struct{}
	held    chan struct{}
	blocked bool
	reads   []int
	active  int
	peak    int
}

// NewMemorySource creates a collection of kind holding rows.
func NewMemorySource(kind feed.Kind, rows ...Row) *MemorySource {
	return &MemorySource{
		kind:    kind,
		hub:     feed.NewHub[feed.Change](),
		rows:    append([]Row(nil), rows...),
		failRow: -1,
	}
}

// Kind returns the collection's kind.
func (s *MemorySource) Kind() feed.Kind {
	return s.kind
}

// RowCount implements engine.Source.
func (s *MemorySource) RowCount(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows), nil
}

// IsBulkLoading implements engine.Source.
func (s *MemorySource) IsBulkLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulk
}

// FieldAt implements format.RowReader.
func (s *MemorySource) FieldAt(_ context.Context, row int, field format.FieldID) (feed.Value, error) {
	s.mu.Lock()
	hold := s.hold
	if hold != nil && !s.blocked {
		s.blocked = true
		close(s.held)
	}
	s.active++
	if s.active > s.peak {
		s.peak = s.active
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	if hold != nil {
		<-hold
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil && row == s.failRow {
		return nil, s.failErr
	}
	if row < 0 || row >= len(s.rows) {
		return nil, fmt.Errorf("%s row %d out of range (0..%d)", s.kind, row, len(s.rows)-1)
	}
	v, ok := s.rows[row][field]
	if !ok {
		return nil, fmt.Errorf("%s row %d has no field %s", s.kind, row, field)
	}
	if field == format.MustFor(s.kind).KeyField() {
		s.reads = append(s.reads, row)
	}
	return v, nil
}

// Subscribe implements engine.Source.
func (s *MemorySource) Subscribe() (<-chan feed.Change, func()) {
	return s.hub.Subscribe()
}

// Notify publishes c to subscribers without mutating anything.
func (s *MemorySource) Notify(c feed.Change) {
	if c.Kind == 0 {
		c.Kind = s.kind
	}
	s.hub.Publish(c)
}

// Append adds rows at the end and notifies RowsInserted.
func (s *MemorySource) Append(rows ...Row) {
	s.mu.Lock()
	start := len(s.rows)
	s.rows = append(s.rows, rows...)
	end := len(s.rows) - 1
	s.mu.Unlock()

	s.hub.Publish(feed.RowsInserted(s.kind, start, end))
}

// Update replaces the row at index and notifies RangeChanged.
func (s *MemorySource) Update(index int, row Row) {
	s.mu.Lock()
	s.rows[index] = row
	s.mu.Unlock()

	s.hub.Publish(feed.RangeChanged(s.kind, index, index))
}

// Replace swaps the whole collection and notifies FullReset.
func (s *MemorySource) Replace(rows ...Row) {
	s.mu.Lock()
	s.rows = append([]Row(nil), rows...)
	s.mu.Unlock()

	s.hub.Publish(feed.FullReset(s.kind))
}

// SetBulkLoading sets the bulk-loading flag. Ending a bulk load notifies
// FullReset.
func (s *MemorySource) SetBulkLoading(on bool) {
	s.mu.Lock()
	was := s.bulk
	s.bulk = on
	s.mu.Unlock()

	if was && !on {
		s.hub.Publish(feed.FullReset(s.kind))
	}
}

// FailAt makes every read of row return err. A nil err clears the failure.
func (s *MemorySource) FailAt(row int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRow = row
	s.failErr = err
}

// Hold blocks every read until release is called. started is closed when
// the first read blocks, so a test knows a pass is in progress.
func (s *MemorySource) Hold() (started <-chan struct{}, release func()) {
	hold := make(chan struct{})
	held := make(chan struct{})

	s.mu.Lock()
	s.hold = hold
	s.held = held
	s.blocked = false
	s.mu.Unlock()

	var once sync.Once
	return held, func() {
		once.Do(func() {
			s.mu.Lock()
			s.hold = nil
			s.held = nil
			s.mu.Unlock()
			close(hold)
		})
	}
}

// RowsRead returns the row indexes whose identity field was read, in order.
func (s *MemorySource) RowsRead() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.reads...)
}

// ResetReads clears the read log.
func (s *MemorySource) ResetReads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = nil
}

// PeakConcurrentReads returns the largest number of FieldAt calls that
// were in progress at once.
func (s *MemorySource) PeakConcurrentReads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// Close closes every subscription.
func (s *MemorySource) Close() {
	s.hub.Close()
}
