package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tacogips/frecency/internal/config"
	"github.com/tacogips/frecency/internal/store"
)

// Environment variables that supply defaults for the global flags.
const (
	EnvDBFile = "FRECENCY_DB"
	EnvConfig = "FRECENCY_CONFIG"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBFile     string
	ConfigFile string
	Verbose    bool

	// Now supplies visit timestamps and the reference time for display.
	Now func() time.Time
}

// NewRootCommand creates the root command for the frecency CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{Now: time.Now})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cmd := &cobra.Command{
		Use:           "frecency",
		Short:         "Rank paths by how often and how recently they were visited",
		Long:          "Frecency records visits to paths and ranks them by an exponentially decayed visit count with a 30 day half-life.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.DBFile, "db-file", "d", os.Getenv(EnvDBFile), "database file (must exist; env "+EnvDBFile+")")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", os.Getenv(EnvConfig), "config file (env "+EnvConfig+")")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewFetchCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewRemoveNotExistsCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute runs the root command with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newLogger(w io.Writer, level slog.Level, verbose bool) *slog.Logger {
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore loads configuration and opens the score store it points at.
// The caller closes the returned DB.
func (o *RootOptions) openStore(cmd *cobra.Command) (*store.DB, *slog.Logger, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, o.Verbose)

	path, err := o.dbPath(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve db path: %w", err)
	}
	if err := config.EnsureDBDir(path); err != nil {
		return nil, nil, err
	}

	db, err := store.Open(path,
		store.WithMaxVisitLogSize(cfg.Visits.MaxLogSize),
		store.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	logger.Debug("opened database", slog.String("path", path), slog.Int("max_visit_log_size", db.MaxVisitLogSize()))
	return db, logger, nil
}

// dbPath prefers the --db-file flag, then database.path from the config
// file, then the default location. Only the flag must already exist.
func (o *RootOptions) dbPath(cfg *config.Config) (string, error) {
	if o.DBFile != "" {
		return config.ResolveDBPath(o.DBFile)
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}
	return config.DefaultDBPath()
}
