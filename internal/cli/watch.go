package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/shadowfeed/internal/config"
	"github.com/roach88/shadowfeed/internal/engine"
	"github.com/roach88/shadowfeed/internal/feed"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Database string
	Kinds    []string

	// IDs overrides the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs engine.BatchIDGenerator
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the synchronizer and print batches until interrupted",
		Long: `Start the synchronizer against the database and print every batch it
dispatches until SIGINT or SIGTERM.

Each kind gets a full pass at start-up. When --config is given the file is
watched and visibility changes trigger a new full pass of the affected kind.

With --format json, each batch is printed as one JSON object per line.

Example:
  shadowfeed watch --db ./wallet.db
  shadowfeed watch --db ./wallet.db --config shadowfeed.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "kinds to watch (transaction|address|message)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
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

	provider := config.NewProvider(cfg)
	defer provider.Close()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var wg sync.WaitGroup
	if opts.Config != "" {
		watcher, err := config.NewWatcher(opts.Config, provider, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to watch config", err)
		}
		defer watcher.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = watcher.Run(ctx)
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	sink := engine.SinkFunc(func(_ feed.Kind, b feed.Batch) {
		if err := out.Batch(b); err != nil {
			logger.Error("failed to write batch", "kind", b.Kind.String(), "error", err)
		}
	})

	ids := opts.IDs
	if ids == nil {
		ids = engine.UUIDv7Generator{}
	}
	syncer, err := engine.New(storeSources(st, kinds), provider, sink,
		engine.WithBatchIDGenerator(ids),
		engine.WithLogger(logger),
	)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create synchronizer", err)
	}

	logger.Info("synchronizer starting", "db", dbPath, "kinds", len(kinds))
	if opts.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes. Press Ctrl-C to stop.")
	}

	if err := syncer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "synchronizer error", err)
	}

	stats := syncer.Stats()
	logger.Info("synchronizer stopped gracefully",
		"full_passes", stats.FullPasses,
		"range_passes", stats.RangePasses,
		"dispatched", stats.Dispatched,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return nil
}
