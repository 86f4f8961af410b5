package engine

import (
	"context"
	"fmt"

	"github.com/roach88/shadowfeed/internal/config"
	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/format"
)

// Producer builds batches from backing collections.
//
// ProduceFull is the snapshot path and ProduceRange the delta path. Both
// run the same scan, so identity resolution, filtering and formatting can
// never drift between the full and the incremental view.
//
// Producer holds no per-pass state; exclusion between passes is the
// caller's job (RefreshGate and lanes in Synchronizer).
type Producer struct {
	sources map[feed.Kind]Source
	config  Config
	filter  *VisibilityFilter
}

// NewProducer creates a producer over sources.
func NewProducer(sources map[feed.Kind]Source, cfg Config) *Producer {
	return &Producer{
		sources: sources,
		config:  cfg,
		filter:  NewVisibilityFilter(cfg),
	}
}

// maxRows returns the configured cap, falling back to the default.
func (p *Producer) maxRows() int {
	if p.config == nil {
		return config.DefaultMaxRows
	}
	if n := p.config.MaxRowsPerFullScan(); n > 0 {
		return n
	}
	return config.DefaultMaxRows
}

// ProduceFull scans rows [0, min(rowCount, maxRows)) and returns a reset batch.
//
// The row cap and visibility set are read once, at the start of the pass.
// If a read fails part way, the records formatted so far are returned
// together with the error; they are a true subset of valid rows.
func (p *Producer) ProduceFull(ctx context.Context, kind feed.Kind) (feed.Batch, error) {
	batch := feed.Batch{Kind: kind, Reset: true}

	src, f, err := p.lookup(kind)
	if err != nil {
		return batch, err
	}

	limit := p.maxRows()
	set := p.filter.Snapshot(kind)

	count, err := src.RowCount(ctx)
	if err != nil {
		return batch, newScanError(kind, -1, fmt.Errorf("row count: %w", err))
	}
	end := min(count, limit) - 1

	batch.Records, err = p.scan(ctx, kind, src, f, set, 0, end)
	return batch, err
}

// ProduceRange scans the inclusive row range [start, end] and returns a
// merge batch.
//
// A range starting past the row cap yields an empty batch; end is clamped
// to the last row inside the cap.
func (p *Producer) ProduceRange(ctx context.Context, kind feed.Kind, start, end int) (feed.Batch, error) {
	batch := feed.Batch{Kind: kind, Reset: false}

	src, f, err := p.lookup(kind)
	if err != nil {
		return batch, err
	}

	limit := p.maxRows()
	if start > limit {
		return batch, nil
	}
	if start < 0 {
		start = 0
	}
	if end > limit-1 {
		end = limit - 1
	}

	set := p.filter.Snapshot(kind)

	count, err := src.RowCount(ctx)
	if err != nil {
		return batch, newScanError(kind, -1, fmt.Errorf("row count: %w", err))
	}
	if end > count-1 {
		end = count - 1
	}

	batch.Records, err = p.scan(ctx, kind, src, f, set, start, end)
	return batch, err
}

// scan formats every visible row in [start, end]. Rows with an empty
// identity key are skipped as invalid.
func (p *Producer) scan(
	ctx context.Context,
	kind feed.Kind,
	src Source,
	f format.Formatter,
	set feed.VisibilitySet,
	start, end int,
) ([]feed.FormattedRecord, error) {
	var records []feed.FormattedRecord

	for row := start; row <= end; row++ {
		key, err := src.FieldAt(ctx, row, f.KeyField())
		if err != nil {
			return records, newScanError(kind, row, err)
		}
		if feed.AsString(key) == "" {
			continue
		}

		label, err := src.FieldAt(ctx, row, f.FilterField())
		if err != nil {
			return records, newScanError(kind, row, err)
		}
		if !set.Contains(feed.AsString(label)) {
			continue
		}

		rec, err := f.Format(ctx, src, row)
		if err != nil {
			return records, newScanError(kind, row, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// lookup resolves the source and formatter for kind.
func (p *Producer) lookup(kind feed.Kind) (Source, format.Formatter, error) {
	src, ok := p.sources[kind]
	if !ok || src == nil {
		return nil, nil, newUnknownKind(kind)
	}
	f, err := format.For(kind)
	if err != nil {
		return nil, nil, newUnknownKind(kind)
	}
	return src, f, nil
}
