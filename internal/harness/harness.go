package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/shadowfeed/internal/config"
	"github.com/roach88/shadowfeed/internal/engine"
	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/store"
)

// idleTimeout bounds how long a step may keep the synchronizer busy.
const idleTimeout = 5 * time.Second

// Harness is the test execution engine.
//
// It drives a real synchronizer over an in-memory store. Store
// notifications are collected synchronously while a step mutates the store
// and routed once the step's writes are complete, so every pass a step
// causes reads the same rows on every run. Batches are drained manually
// after the lanes go idle.
type Harness struct {
	store    *store.Store
	provider *config.Provider
	sync     *engine.Synchronizer
	logger   *slog.Logger

	mu      sync.Mutex
	changes []feed.Change
	pending []feed.Batch
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database and seed it (no batches)
// 2. Start a synchronizer with fixed batch ids and manual draining
// 3. Execute steps, waiting for idle and draining after each
// 4. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	if err := st.Seed(ctx, scenario.Store); err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	provider, err := newProvider(scenario)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	h := &Harness{
		store:    st,
		provider: provider,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	sources := make(map[feed.Kind]engine.Source, len(feed.AllKinds()))
	for kind, coll := range st.Collections() {
		sources[kind] = quietSource{coll}
	}

	h.sync, err = engine.New(sources, staticConfig{provider}, engine.SinkFunc(h.onBatch),
		engine.WithBatchIDGenerator(engine.NewFixedGenerator()),
		engine.WithLogger(h.logger),
		engine.WithManualDrain(),
		engine.WithoutInitialRefresh(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create synchronizer: %w", err)
	}

	unobserve := st.Observe(h.observe)
	defer unobserve()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- h.sync.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()
	<-h.sync.Ready()

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		if err := h.settle(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		for _, b := range h.takeBatches() {
			result.AddBatch(i, b)
		}
		h.logger.Info("step completed", "step", i, "batches", len(result.Trace))
	}
	result.Skipped = h.sync.Stats().Skipped

	actx := &AssertionContext{
		Store: st,
		Ctx:   ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

func newProvider(scenario *Scenario) (*config.Provider, error) {
	cfg := config.Default()
	cfg.MaxRows = scenario.MaxRows
	for name, labels := range scenario.Visible {
		kind, err := feed.ParseKind(name)
		if err != nil {
			return nil, err
		}
		switch kind {
		case feed.KindTransaction:
			cfg.Visible.Transaction = labels
		case feed.KindAddress:
			cfg.Visible.Address = labels
		case feed.KindMessage:
			cfg.Visible.Message = labels
		}
	}
	return config.NewProvider(cfg), nil
}

// executeStep performs one step and routes the notifications it caused.
func (h *Harness) executeStep(ctx context.Context, step Step) error {
	switch {
	case step.Full != "":
		kind, err := feed.ParseKind(step.Full)
		if err != nil {
			return err
		}
		h.sync.RequestFull(kind)

	case step.Range != nil:
		kind, err := feed.ParseKind(step.Range.Kind)
		if err != nil {
			return err
		}
		h.sync.RequestRange(kind, step.Range.Start, step.Range.End)

	case step.Insert != nil:
		if err := h.store.Apply(ctx, *step.Insert); err != nil {
			return fmt.Errorf("insert: %w", err)
		}

	case step.Visible != nil:
		kind, err := feed.ParseKind(step.Visible.Kind)
		if err != nil {
			return err
		}
		set := feed.ParseVisibilitySet(step.Visible.Labels)
		if h.provider.SetVisible(kind, set) {
			h.sync.HandleVisibilityChange(feed.VisibilityChange{Kind: kind, Set: set})
		}

	case step.Bulk != nil:
		h.store.SetBulkLoading(*step.Bulk)

	default:
		return errors.New("empty step")
	}

	for _, c := range h.takeChanges() {
		h.sync.HandleChange(c)
	}
	return nil
}

// settle waits for every lane to go idle, then delivers queued batches.
func (h *Harness) settle() error {
	deadline := time.Now().Add(idleTimeout)
	for !h.sync.Idle() {
		if time.Now().After(deadline) {
			return fmt.Errorf("synchronizer still busy after %s", idleTimeout)
		}
		time.Sleep(time.Millisecond)
	}
	h.sync.Dispatcher().Drain()
	return nil
}

func (h *Harness) observe(c feed.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, c)
}

func (h *Harness) takeChanges() []feed.Change {
	h.mu.Lock()
	defer h.mu.Unlock()
	changes := h.changes
	h.changes = nil
	return changes
}

func (h *Harness) onBatch(_ feed.Kind, b feed.Batch) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, b)
}

// takeBatches returns the batches delivered since the last call, grouped
// by kind. Lanes run concurrently, so the interleaving of kinds within a
// step is not stable; the order within a kind is.
func (h *Harness) takeBatches() []feed.Batch {
	h.mu.Lock()
	defer h.mu.Unlock()
	batches := h.pending
	h.pending = nil
	slices.SortStableFunc(batches, func(a, b feed.Batch) int {
		return int(a.Kind) - int(b.Kind)
	})
	return batches
}

// quietSource hides a collection's own change stream. The harness routes
// store notifications itself.
type quietSource struct {
	*store.Collection
}

func (quietSource) Subscribe() (<-chan feed.Change, func()) {
	ch := make(chan feed.Change)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

// staticConfig exposes a provider without its change stream, so visibility
// steps are routed by the harness only.
type staticConfig struct {
	p *config.Provider
}

func (c staticConfig) VisibleKinds(kind feed.Kind) feed.VisibilitySet {
	return c.p.VisibleKinds(kind)
}

func (c staticConfig) MaxRowsPerFullScan() int {
	return c.p.MaxRowsPerFullScan()
}
