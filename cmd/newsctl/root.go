package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/jdholdren/newsroom/internal/database"
	"github.com/jdholdren/newsroom/internal/logger"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/retention"
)

// Flags override the environment.
type config struct {
	Database string           `env:"DATABASE"`
	Dialect  database.Dialect `env:"DIALECT, default=sqlite"`

	LogFormat string `env:"LOG_FORMAT, default=text"`
	LogLevel  string `env:"LOG_LEVEL, default=warn"`

	TemporalHostPort  string        `env:"TEMPORAL_HOST_PORT"`
	RetentionDeadline time.Duration `env:"RETENTION_DEADLINE, default=5m"`
	FetchTimeout      time.Duration `env:"FETCH_TIMEOUT, default=10s"`
}

type cli struct {
	cfg config

	flagDatabase string
	flagDialect  string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "newsctl",
		Short: "Operate a newsroom feed store",
		Long: `newsctl runs maintenance against the database the api and worker share.

The database comes from DATABASE and DIALECT unless --database and --dialect say otherwise.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.load,
	}
	root.PersistentFlags().StringVar(&c.flagDatabase, "database", "", "database path or connection string (default $DATABASE)")
	root.PersistentFlags().StringVar(&c.flagDialect, "dialect", "", "sqlite or postgres (default $DIALECT)")

	root.AddCommand(
		c.migrateCmd(),
		c.sweepCmd(),
		c.syncCmd(),
		c.importOPMLCmd(),
		c.exportOPMLCmd(),
	)

	return root
}

func (c *cli) load(cmd *cobra.Command, args []string) error {
	if err := envconfig.Process(cmd.Context(), &c.cfg); err != nil {
		return fmt.Errorf("error parsing config: %w", err)
	}
	if c.flagDatabase != "" {
		c.cfg.Database = c.flagDatabase
	}
	if c.flagDialect != "" {
		d, err := database.ParseDialect(c.flagDialect)
		if err != nil {
			return err
		}
		c.cfg.Dialect = d
	}
	if c.cfg.Database == "" {
		return fmt.Errorf("no database configured, set DATABASE or --database: %w", news.ErrInvalidConfig)
	}

	if err := retention.CheckDeadline(c.cfg.RetentionDeadline); err != nil {
		return err
	}

	slog.SetDefault(logger.New(cmd.ErrOrStderr(), c.cfg.LogFormat, c.cfg.LogLevel))

	return nil
}

func (c *cli) open(ctx context.Context) (*sqlx.DB, error) {
	dbx, err := database.Open(ctx, c.cfg.Dialect, c.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return dbx, nil
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply any pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbx, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer dbx.Close()

			if err := database.RunMigrations(dbx, c.cfg.Dialect); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s database.\n", c.cfg.Dialect)
			return nil
		},
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Reports the sweep's count even when it was cut short.
func printSwept(w io.Writer, deleted, feeds int, err error) {
	switch {
	case deleted == 0 && err == nil:
		fmt.Fprintln(w, "Nothing to delete.")
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(w, "Deleted %s from %s before the deadline.\n", plural(deleted, "item"), plural(feeds, "feed"))
	default:
		fmt.Fprintf(w, "Deleted %s from %s.\n", plural(deleted, "item"), plural(feeds, "feed"))
	}
}
