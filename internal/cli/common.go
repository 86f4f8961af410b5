package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/shadowfeed/internal/config"
	"github.com/roach88/shadowfeed/internal/engine"
	"github.com/roach88/shadowfeed/internal/feed"
	"github.com/roach88/shadowfeed/internal/store"
)

// loadConfig reads the --config file, or returns the defaults when none
// is given.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.Config == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// newLogger builds the command logger. --verbose wins over the configured
// level.
func newLogger(opts *RootOptions, cfg config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveDatabase picks the --db flag, falling back to the config file.
func resolveDatabase(flag string, cfg config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if cfg.Database != "" {
		return cfg.Database, nil
	}
	return "", NewExitError(ExitCommandError, "no database: pass --db or set database in the config file")
}

func openStore(path string, logger *slog.Logger) (*store.Store, error) {
	logger.Info("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// parseKinds resolves the --kind flag. Empty means every kind.
func parseKinds(names []string) ([]feed.Kind, error) {
	if len(names) == 0 {
		return feed.AllKinds(), nil
	}
	kinds := make([]feed.Kind, 0, len(names))
	for _, name := range names {
		k, err := feed.ParseKind(name)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --kind", err)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// storeSources exposes the store collections of kinds as synchronizer sources.
func storeSources(st *store.Store, kinds []feed.Kind) map[feed.Kind]engine.Source {
	sources := make(map[feed.Kind]engine.Source, len(kinds))
	for _, k := range kinds {
		sources[k] = st.Collection(k)
	}
	return sources
}

// waitIdle polls until no pass is queued or running.
func waitIdle(ctx context.Context, s *engine.Synchronizer, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for !s.Idle() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for passes to finish: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
