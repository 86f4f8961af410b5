package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a configuration file into a Provider whenever it changes.
//
// The parent directory is watched rather than the file itself so that
// editors which save by rename are picked up.
type Watcher struct {
	path     string
	provider *Provider
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
}

// NewWatcher starts watching path. Call Run to process events and Close
// to release the underlying watcher.
func NewWatcher(path string, provider *Provider, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		provider: provider,
		fsw:      fsw,
		logger:   logger,
	}, nil
}

// Run processes file events until ctx is cancelled or the watcher is closed.
//
// A reload that fails validation is logged and the previous configuration
// stays active.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "path", w.path, "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous configuration",
			"path", w.path,
			"error", err,
		)
		return
	}

	changed := w.provider.Apply(cfg)
	w.logger.Info("config reloaded",
		"path", w.path,
		"max_rows", cfg.MaxRows,
		"visibility_changed", len(changed),
	)
}
