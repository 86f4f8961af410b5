package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/shadowfeed/internal/feed"
)

// Dispatcher carries batches from producer lanes to the consumer's context.
//
// Dispatch never blocks and never drops a non-empty batch. Batches reach the
// sink exactly once, in the order Dispatch was called. Empty batches are
// suppressed.
//
// The consumer either runs Run in a goroutine it owns, or calls Drain from
// its own loop. Using both at once breaks ordering.
type Dispatcher struct {
	queue  *fifo[feed.Batch]
	sink   Sink
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher delivering to sink.
func NewDispatcher(sink Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:  newFIFO[feed.Batch](),
		sink:   sink,
		logger: logger,
	}
}

// Dispatch posts batch for delivery. Returns false if the batch was empty
// or the dispatcher is closed.
// Thread-safe: may be called from any goroutine.
func (d *Dispatcher) Dispatch(batch feed.Batch) bool {
	if batch.Empty() {
		d.logger.Debug("empty batch suppressed",
			"kind", batch.Kind.String(),
			"reset", batch.Reset,
		)
		return false
	}
	return d.queue.Enqueue(batch)
}

// Run delivers batches until ctx is cancelled or Close is called and the
// queue is drained.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if batch, ok := d.queue.TryDequeue(); ok {
			d.deliver(batch)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-d.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which will cause this case to fire immediately.
			if d.queue.Closed() && d.queue.Len() == 0 {
				return nil
			}
		}
	}
}

// Drain delivers every pending batch on the caller's goroutine and
// returns how many were delivered.
func (d *Dispatcher) Drain() int {
	n := 0
	for {
		batch, ok := d.queue.TryDequeue()
		if !ok {
			return n
		}
		d.deliver(batch)
		n++
	}
}

// Pending returns the number of batches waiting for delivery.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Close stops accepting batches. Pending batches are still delivered by
// Run or Drain.
func (d *Dispatcher) Close() {
	d.queue.Close()
}

func (d *Dispatcher) deliver(batch feed.Batch) {
	d.logger.Debug("batch delivered",
		"kind", batch.Kind.String(),
		"batch_id", batch.ID,
		"seq", batch.Seq,
		"reset", batch.Reset,
		"records", batch.Len(),
	)
	d.sink.OnBatch(batch.Kind, batch)
}
