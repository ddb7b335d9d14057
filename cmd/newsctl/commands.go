package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"

	"github.com/jdholdren/newsroom/internal/opml"
	"github.com/jdholdren/newsroom/internal/retention"
	"github.com/jdholdren/newsroom/internal/sqlstore"
	newssync "github.com/jdholdren/newsroom/internal/sync"
	"github.com/jdholdren/newsroom/internal/worker"
)

func (c *cli) sweepCmd() *cobra.Command {
	var (
		threshold   int
		viaTemporal bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete old read items beyond each feed's allowance",
		Long: `Delete the oldest read, unstarred items of every feed that holds more than
articles-per-update + threshold of them. Unread and starred items are never touched.

With --temporal the sweep runs on a worker, so it can't overlap a scheduled one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if viaTemporal {
				if c.cfg.TemporalHostPort == "" {
					return fmt.Errorf("--temporal needs TEMPORAL_HOST_PORT")
				}
				tc, err := client.Dial(client.Options{HostPort: c.cfg.TemporalHostPort})
				if err != nil {
					return fmt.Errorf("connecting to temporal: %w", err)
				}
				defer tc.Close()

				res, err := worker.TriggerRetentionSweep(ctx, tc, threshold)
				if err != nil {
					return err
				}
				var stopped error
				if res.Partial {
					stopped = context.DeadlineExceeded
				}
				printSwept(cmd.OutOrStdout(), res.Deleted, res.Feeds, stopped)
				return nil
			}

			dbx, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer dbx.Close()

			m := retention.NewManager(sqlstore.New(dbx, c.cfg.Dialect), retention.WithDeadline(c.cfg.RetentionDeadline))
			report, err := m.Sweep(ctx, threshold)
			if err == nil || errors.Is(err, context.DeadlineExceeded) {
				printSwept(cmd.OutOrStdout(), report.Deleted, report.Feeds, err)
			}

			return err
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 0, "read items to keep per feed on top of its articles-per-update")
	cmd.Flags().BoolVar(&viaTemporal, "temporal", false, "run the sweep on a worker instead of in this process")

	return cmd
}

func (c *cli) syncCmd() *cobra.Command {
	var feedID int64

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh feeds from their sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbx, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer dbx.Close()

			var (
				repo   = sqlstore.New(dbx, c.cfg.Dialect)
				syncer = newssync.NewSyncer(repo, newssync.NewFetcher(newssync.FetcherConfig{Timeout: c.cfg.FetchTimeout}))
			)

			if feedID != 0 {
				inserted, err := syncer.SyncFeed(ctx, feedID)
				if err != nil {
					return fmt.Errorf("syncing feed %d: %w", feedID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Synced feed %d, %s new.\n", feedID, plural(inserted, "item"))
				return nil
			}

			synced, err := syncer.SyncAll(ctx)
			if err != nil {
				return fmt.Errorf("syncing feeds: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %s.\n", plural(synced, "feed"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&feedID, "feed", 0, "only refresh this feed")

	return cmd
}

func (c *cli) importOPMLCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "import-opml FILE",
		Short: "Subscribe a user to every feed in an OPML file",
		Long: `Subscribe a user to every feed in an OPML file, creating folders as needed.

Feeds the user already has are skipped. New feeds get their items on the next sync.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening opml: %w", err)
			}
			defer f.Close()

			entries, err := opml.Parse(f)
			if err != nil {
				return err
			}

			dbx, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer dbx.Close()

			res, err := opml.Import(ctx, sqlstore.New(dbx, c.cfg.Dialect), userID, entries)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s and %s, skipped %d already subscribed.\n",
				plural(res.Feeds, "feed"), plural(res.Folders, "folder"), res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user to subscribe")
	cmd.MarkFlagRequired("user")

	return cmd
}

func (c *cli) exportOPMLCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "export-opml",
		Short: "Write a user's subscriptions as OPML to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dbx, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer dbx.Close()

			repo := sqlstore.New(dbx, c.cfg.Dialect)
			folders, err := repo.Folders(ctx, userID)
			if err != nil {
				return err
			}
			feeds, err := repo.Feeds(ctx, userID)
			if err != nil {
				return err
			}

			out, err := opml.Export(folders, feeds)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user whose subscriptions to export")
	cmd.MarkFlagRequired("user")

	return cmd
}
