package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/shadowfeed/internal/config"
	"github.com/roach88/shadowfeed/internal/engine"
	"github.com/roach88/shadowfeed/internal/feed"
)

// snapshotTimeout bounds the initial passes of a snapshot.
const snapshotTimeout = 30 * time.Second

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Database string
	Kinds    []string

	// IDs overrides the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.BatchIDGenerator
}

// SnapshotResult is the JSON payload of a snapshot.
type SnapshotResult struct {
	Counts  map[string]int `json:"counts"`
	MaxRows int            `json:"max_rows"`
	Batches []BatchSummary `json:"batches"`
}

// BatchSummary describes one batch in a snapshot result.
type BatchSummary struct {
	ID      string           `json:"id"`
	Kind    string           `json:"kind"`
	Seq     int64            `json:"seq"`
	Reset   bool             `json:"reset"`
	Records []map[string]any `json:"records"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run one full pass per kind and print the batches",
		Long: `Run a full pass for each record kind against the database and print
the row count of each collection followed by the resulting batches.

Kinds with no visible rows produce no batch.

Examples:
  shadowfeed snapshot --db ./wallet.db
  shadowfeed snapshot --db ./wallet.db --kind transaction --format json
  shadowfeed snapshot --db ./wallet.db --config shadowfeed.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "kinds to snapshot (transaction|address|message)")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	dbPath, err := resolveDatabase(opts.Database, cfg)
	if err != nil {
		return err
	}
	kinds, err := parseKinds(opts.Kinds)
	if err != nil {
		return err
	}

	st, err := openStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}

	counts, err := st.Counts(parentCtx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count rows", err)
	}

	provider := config.NewProvider(cfg)
	defer provider.Close()

	var batches []feed.Batch
	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	sync, err := engine.New(storeSources(st, kinds), provider,
		engine.SinkFunc(func(_ feed.Kind, b feed.Batch) { batches = append(batches, b) }),
		engine.WithBatchIDGenerator(ids),
		engine.WithLogger(logger),
		engine.WithManualDrain(),
	)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create synchronizer", err)
	}

	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- sync.Run(ctx) }()

	<-sync.Ready()
	waitErr := waitIdle(ctx, sync, snapshotTimeout)
	sync.Dispatcher().Drain()
	cancel()
	<-done
	if waitErr != nil {
		return WrapExitError(ExitFailure, "snapshot incomplete", waitErr)
	}

	stats := sync.Stats()
	logger.Info("snapshot complete",
		"passes", stats.FullPasses,
		"batches", stats.Dispatched,
		"failed", stats.Failed,
	)

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		result := SnapshotResult{
			Counts:  make(map[string]int, len(kinds)),
			MaxRows: provider.MaxRowsPerFullScan(),
			Batches: make([]BatchSummary, 0, len(batches)),
		}
		for _, k := range kinds {
			result.Counts[k.String()] = counts[k]
		}
		for _, b := range batches {
			result.Batches = append(result.Batches, summarize(b))
		}
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		for _, k := range kinds {
			fmt.Fprintf(w, "%-12s %d row(s)\n", k, counts[k])
		}
		fmt.Fprintln(w)
		for _, b := range batches {
			if err := out.Batch(b); err != nil {
				return err
			}
		}
	}

	if stats.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d pass(es) failed", stats.Failed))
	}
	return nil
}

func summarize(b feed.Batch) BatchSummary {
	records := make([]map[string]any, len(b.Records))
	for i, r := range b.Records {
		records[i] = r.Map()
	}
	return BatchSummary{
		ID:      b.ID,
		Kind:    b.Kind.String(),
		Seq:     b.Seq,
		Reset:   b.Reset,
		Records: records,
	}
}
