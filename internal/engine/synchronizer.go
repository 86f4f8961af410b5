package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/shadowfeed/internal/feed"
)

// Synchronizer keeps a consumer's view of each record kind in step with the
// backing store.
//
// Full-reset notifications and visibility changes become full passes,
// admitted by the RefreshGate. Row-range notifications become range passes.
// Passes run on lanes: transactions and addresses share the wallet lane,
// messages have their own. Finished batches go through the Dispatcher to
// the Sink.
//
// Thread-safety model:
//   - HandleChange, RequestFull, RequestRange: safe from any goroutine
//   - Run: call once, from one goroutine
//   - Stop: safe from any goroutine
//
// INVARIANTS:
//   - At most one full pass per kind is admitted at any time
//   - Passes for one kind run sequentially, so batches for a kind are
//     dispatched in the order their passes completed
//   - Passes never surface errors to the sink; failures are logged
type Synchronizer struct {
	sources    map[feed.Kind]Source
	config     Config
	gate       *RefreshGate
	producer   *Producer
	dispatcher *Dispatcher
	lanes      map[feed.Kind]*lane
	laneList   []*lane
	clock      *Clock
	ids        BatchIDGenerator
	logger     *slog.Logger

	manualDrain    bool
	initialRefresh bool

	started atomic.Bool
	ready   chan struct{}
	mu      sync.Mutex
	cancel  context.CancelFunc

	fullPasses  atomic.Int64
	rangePasses atomic.Int64
	skipped     atomic.Int64
	failed      atomic.Int64
	dispatched  atomic.Int64
	suppressed  atomic.Int64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithBatchIDGenerator sets the batch identifier source.
// Default: UUIDv7Generator.
func WithBatchIDGenerator(g BatchIDGenerator) Option {
	return func(s *Synchronizer) {
		s.ids = g
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// WithClock sets the logical clock stamping Batch.Seq.
func WithClock(c *Clock) Option {
	return func(s *Synchronizer) {
		s.clock = c
	}
}

// WithManualDrain stops Run from delivering batches. The consumer calls
// Dispatcher().Drain() from its own loop instead.
func WithManualDrain() Option {
	return func(s *Synchronizer) {
		s.manualDrain = true
	}
}

// WithoutInitialRefresh stops Run from requesting a full pass per kind on start.
func WithoutInitialRefresh() Option {
	return func(s *Synchronizer) {
		s.initialRefresh = false
	}
}

// New creates a Synchronizer over sources, delivering to sink.
//
// Each producer lane is bound here, at construction; nothing checks
// execution context at runtime.
func New(sources map[feed.Kind]Source, cfg Config, sink Sink, opts ...Option) (*Synchronizer, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}

	s := &Synchronizer{
		sources:        make(map[feed.Kind]Source, len(sources)),
		config:         cfg,
		lanes:          make(map[feed.Kind]*lane, len(sources)),
		clock:          NewClock(),
		ids:            UUIDv7Generator{},
		logger:         slog.Default(),
		initialRefresh: true,
		ready:          make(chan struct{}),
	}

	for kind, src := range sources {
		if !kind.Valid() {
			return nil, fmt.Errorf("invalid kind %s", kind)
		}
		if src == nil {
			return nil, fmt.Errorf("nil source for %s", kind)
		}
		s.sources[kind] = src
	}

	for _, opt := range opts {
		opt(s)
	}

	wallet := newLane(laneWallet)
	messages := newLane(laneMessages)
	s.laneList = []*lane{wallet, messages}
	for kind := range s.sources {
		if kind == feed.KindMessage {
			s.lanes[kind] = messages
		} else {
			s.lanes[kind] = wallet
		}
	}

	s.gate = NewRefreshGate(s.isBulkLoading)
	s.producer = NewProducer(s.sources, cfg)
	s.dispatcher = NewDispatcher(sink, s.logger)

	return s, nil
}

// Run starts the lanes, the dispatcher (unless WithManualDrain) and the
// notification subscriptions, then blocks until ctx is cancelled or Stop
// is called. Passes already executing run to completion before Run returns.
func (s *Synchronizer) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("synchronizer already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	s.logger.Info("synchronizer starting", "kinds", len(s.sources))

	var wg sync.WaitGroup
	for _, l := range s.laneList {
		wg.Add(1)
		go func(l *lane) {
			defer wg.Done()
			l.run(runCtx)
		}(l)
	}

	if !s.manualDrain {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.dispatcher.Run(runCtx)
		}()
	}

	var cancels []func()
	for _, kind := range feed.AllKinds() {
		src, ok := s.sources[kind]
		if !ok {
			continue
		}
		changes, unsubscribe := src.Subscribe()
		cancels = append(cancels, unsubscribe)

		wg.Add(1)
		go func(kind feed.Kind, changes <-chan feed.Change) {
			defer wg.Done()
			s.watchSource(runCtx, kind, changes)
		}(kind, changes)
	}

	if notifier, ok := s.config.(ConfigNotifier); ok {
		changes, unsubscribe := notifier.Subscribe()
		cancels = append(cancels, unsubscribe)

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.watchConfig(runCtx, changes)
		}()
	}

	if s.initialRefresh {
		for _, kind := range feed.AllKinds() {
			if _, ok := s.sources[kind]; ok {
				s.RequestFull(kind)
			}
		}
	}

	close(s.ready)

	<-runCtx.Done()

	for _, unsubscribe := range cancels {
		unsubscribe()
	}
	for _, l := range s.laneList {
		l.close()
	}
	s.dispatcher.Close()
	wg.Wait()

	s.logger.Info("synchronizer stopped")

	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Ready is closed once Run has subscribed to every notification stream.
func (s *Synchronizer) Ready() <-chan struct{} {
	return s.ready
}

// Stop ends Run. Safe to call before Run or more than once.
func (s *Synchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// HandleChange routes a backing store notification.
func (s *Synchronizer) HandleChange(c feed.Change) {
	switch c.Type {
	case feed.ChangeFullReset:
		s.RequestFull(c.Kind)
	case feed.ChangeRangeChanged, feed.ChangeRowsInserted:
		s.RequestRange(c.Kind, c.Start, c.End)
	default:
		s.logger.Warn("ignoring unknown change type",
			"kind", c.Kind.String(),
			"type", c.Type.String(),
		)
	}
}

// HandleVisibilityChange forces a full pass for the changed kind, since
// rows hidden before may now need to appear and the reverse.
func (s *Synchronizer) HandleVisibilityChange(c feed.VisibilityChange) {
	s.logger.Info("visibility changed",
		"kind", c.Kind.String(),
		"labels", c.Set.Labels(),
	)
	s.RequestFull(c.Kind)
}

// RequestFull asks for a full pass of kind. Returns false when the gate
// rejects it; the request is dropped, not deferred.
func (s *Synchronizer) RequestFull(kind feed.Kind) bool {
	l, ok := s.lanes[kind]
	if !ok {
		s.logSkip("full", newUnknownKind(kind))
		return false
	}

	if err := s.gate.acquire(kind); err != nil {
		s.logSkip("full", err)
		return false
	}

	submitted := l.submit(func() {
		defer s.gate.Release(kind)
		s.runFull(kind)
	})
	if !submitted {
		s.gate.Release(kind)
		return false
	}
	return true
}

// RequestRange asks for a range pass of rows [start, end] of kind.
//
// Range passes are not held back by an in-flight full pass; they queue
// behind it on the kind's lane. A range covering the whole capped window
// is equivalent to a full page and goes through the gate like one.
// Ranges are skipped while the store is bulk loading; the store announces
// a full reset when the bulk load ends.
func (s *Synchronizer) RequestRange(kind feed.Kind, start, end int) bool {
	l, ok := s.lanes[kind]
	if !ok {
		s.logSkip("range", newUnknownKind(kind))
		return false
	}

	if s.isBulkLoading(kind) {
		s.logSkip("range", newBulkLoading(kind))
		return false
	}

	fullPage := start <= 0 && end >= s.producer.maxRows()-1
	if fullPage {
		if err := s.gate.acquire(kind); err != nil {
			s.logSkip("range", err)
			return false
		}
	}

	submitted := l.submit(func() {
		if fullPage {
			defer s.gate.Release(kind)
		}
		unlock := s.gate.LockScan(kind)
		defer unlock()
		s.runRange(kind, start, end)
	})
	if !submitted && fullPage {
		s.gate.Release(kind)
	}
	return submitted
}

// Gate returns the refresh gate.
func (s *Synchronizer) Gate() *RefreshGate {
	return s.gate
}

// Producer returns the batch producer.
func (s *Synchronizer) Producer() *Producer {
	return s.producer
}

// Dispatcher returns the dispatcher, for consumers using WithManualDrain.
func (s *Synchronizer) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// Stats counts pass outcomes since construction.
type Stats struct {
	FullPasses  int64
	RangePasses int64
	Skipped     int64
	Failed      int64
	Dispatched  int64
	Suppressed  int64
}

// Stats returns a snapshot of the pass counters.
func (s *Synchronizer) Stats() Stats {
	return Stats{
		FullPasses:  s.fullPasses.Load(),
		RangePasses: s.rangePasses.Load(),
		Skipped:     s.skipped.Load(),
		Failed:      s.failed.Load(),
		Dispatched:  s.dispatched.Load(),
		Suppressed:  s.suppressed.Load(),
	}
}

// Pending returns the number of passes queued on all lanes.
func (s *Synchronizer) Pending() int {
	n := 0
	for _, l := range s.laneList {
		n += l.pending()
	}
	return n
}

// Idle reports whether no pass is queued or executing on any lane.
func (s *Synchronizer) Idle() bool {
	for _, l := range s.laneList {
		if !l.idle() {
			return false
		}
	}
	return true
}

func (s *Synchronizer) runFull(kind feed.Kind) {
	s.fullPasses.Add(1)

	batch, err := s.producer.ProduceFull(context.Background(), kind)
	if err != nil {
		s.failed.Add(1)
		logPassError(s.logger, "full", kind, batch.Len(), err)
	}
	s.emit(batch)
}

func (s *Synchronizer) runRange(kind feed.Kind, start, end int) {
	s.rangePasses.Add(1)

	batch, err := s.producer.ProduceRange(context.Background(), kind, start, end)
	if err != nil {
		s.failed.Add(1)
		logPassError(s.logger, "range", kind, batch.Len(), err)
	}
	s.emit(batch)
}

// emit stamps and dispatches a non-empty batch.
func (s *Synchronizer) emit(batch feed.Batch) {
	if batch.Empty() {
		s.suppressed.Add(1)
		return
	}

	batch.ID = s.ids.Generate()
	batch.Seq = s.clock.Next()

	if s.dispatcher.Dispatch(batch) {
		s.dispatched.Add(1)
	}
}

func (s *Synchronizer) watchSource(ctx context.Context, kind feed.Kind, changes <-chan feed.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if c.Kind == 0 {
				c.Kind = kind
			}
			s.HandleChange(c)
		}
	}
}

func (s *Synchronizer) watchConfig(ctx context.Context, changes <-chan feed.VisibilityChange) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.HandleVisibilityChange(c)
		}
	}
}

func (s *Synchronizer) isBulkLoading(kind feed.Kind) bool {
	src, ok := s.sources[kind]
	return ok && src.IsBulkLoading()
}

func (s *Synchronizer) logSkip(pass string, err error) {
	s.skipped.Add(1)

	var se *SyncError
	if errors.As(err, &se) && se.Code == ErrCodeUnknownKind {
		s.logger.Warn("pass skipped",
			"pass", pass,
			"kind", se.Kind.String(),
			"reason", string(se.Code),
		)
		return
	}
	s.logger.Debug("pass skipped", "pass", pass, "error", err)
}

// logPassError logs a failed pass with enough context to reproduce it.
// The partial batch, if any, is still dispatched by the caller.
func logPassError(logger *slog.Logger, pass string, kind feed.Kind, formatted int, err error) {
	var se *SyncError
	if errors.As(err, &se) {
		logger.Error("pass failed",
			"pass", pass,
			"kind", kind.String(),
			"code", string(se.Code),
			"row", se.Row,
			"formatted", formatted,
			"error", err,
		)
		return
	}

	logger.Error("pass failed",
		"pass", pass,
		"kind", kind.String(),
		"formatted", formatted,
		"error", err,
	)
}
