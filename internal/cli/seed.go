package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/shadowfeed/internal/store"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// SeedResult is the JSON payload of a successful seed.
type SeedResult struct {
	Fixture      string `json:"fixture"`
	Transactions int    `json:"transactions"`
	Addresses    int    `json:"addresses"`
	Messages     int    `json:"messages"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load wallet records from a YAML fixture",
		Long: `Load transactions, addresses and messages from a YAML fixture into
the database, creating it if needed. Existing records with the same key
are replaced.

The load runs as a bulk load: running synchronizers skip refreshes while it
is in progress and refresh every kind once it ends.

Example:
  shadowfeed seed --db ./wallet.db testdata/wallet.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")

	return cmd
}

func runSeed(opts *SeedOptions, fixturePath string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	logger := newLogger(opts.RootOptions, cfg, cmd.ErrOrStderr())

	dbPath, err := resolveDatabase(opts.Database, cfg)
	if err != nil {
		return err
	}

	if _, err := os.Stat(fixturePath); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("fixture not found: %s", fixturePath))
	}
	fx, err := store.LoadFixture(fixturePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid fixture", err)
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := st.Seed(ctx, fx); err != nil {
		return WrapExitError(ExitFailure, "seed failed", err)
	}
	logger.Info("fixture loaded", "path", fixturePath, "records", fx.Len())

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(SeedResult{
			Fixture:      fixturePath,
			Transactions: len(fx.Transactions),
			Addresses:    len(fx.Addresses),
			Messages:     len(fx.Messages),
		})
	}
	return out.Success(fmt.Sprintf("Seeded %d transaction(s), %d address(es), %d message(s) into %s",
		len(fx.Transactions), len(fx.Addresses), len(fx.Messages), dbPath))
}
