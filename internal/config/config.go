package config

import (
	"log/slog"

	"github.com/roach88/shadowfeed/internal/feed"
)

// DefaultMaxRows bounds a full scan when no configuration overrides it.
const DefaultMaxRows = 200

// Config is the decoded configuration file.
type Config struct {
	Database string  `json:"database,omitempty" yaml:"database,omitempty"`
	MaxRows  int     `json:"max_rows" yaml:"max_rows"`
	LogLevel string  `json:"log_level" yaml:"log_level"`
	Visible  Visible `json:"visible" yaml:"visible"`
}

// Visible lists the visible type labels per kind. ["*"] shows everything.
type Visible struct {
	Transaction []string `json:"transaction" yaml:"transaction"`
	Address     []string `json:"address" yaml:"address"`
	Message     []string `json:"message" yaml:"message"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MaxRows:  DefaultMaxRows,
		LogLevel: "info",
		Visible: Visible{
			Transaction: []string{feed.Wildcard},
			Address:     []string{feed.Wildcard},
			Message:     []string{feed.Wildcard},
		},
	}
}

// VisibleFor returns the configured label list for kind.
func (c Config) VisibleFor(kind feed.Kind) []string {
	switch kind {
	case feed.KindTransaction:
		return c.Visible.Transaction
	case feed.KindAddress:
		return c.Visible.Address
	case feed.KindMessage:
		return c.Visible.Message
	default:
		return nil
	}
}

// SlogLevel maps LogLevel onto a slog level. Unknown values yield Info.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
