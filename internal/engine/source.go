package engine

import (
	"context"

	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

// Source is the backing store collection for one record kind.
//
// The synchronizer only reads through it. Rows are addressed in the
// collection's current sort order; row indexes are only valid until the
// next mutation.
type Source interface {
	format.RowReader

	// RowCount returns the number of rows currently in the collection.
	RowCount(ctx context.Context) (int, error)

	// IsBulkLoading reports whether the store is in a bulk load (for
	// example an initial wallet sync) during which refreshes are skipped.
	IsBulkLoading() bool

	// Subscribe registers for change notifications. cancel releases the
	// subscription and closes the channel.
	Subscribe() (changes <-chan feed.Change, cancel func())
}

// Config is the configuration the producers read at the start of each pass.
type Config interface {
	VisibleKinds(kind feed.Kind) feed.VisibilitySet
	MaxRowsPerFullScan() int
}

// ConfigNotifier is implemented by configurations that announce visibility
// changes. The synchronizer subscribes when its Config implements it.
type ConfigNotifier interface {
	Subscribe() (changes <-chan feed.VisibilityChange, cancel func())
}

// Sink receives dispatched batches on the consumer's execution context.
type Sink interface {
	OnBatch(kind feed.Kind, batch feed.Batch)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(kind feed.Kind, batch feed.Batch)

// OnBatch calls f.
func (f SinkFunc) OnBatch(kind feed.Kind, batch feed.Batch) {
	f(kind, batch)
}
