package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/retention"
)

type (
	// FeedSyncer refreshes stored feeds from their sources.
	FeedSyncer interface {
		SyncFeed(ctx context.Context, feedID int64) (int, error)
	}

	// Sweeper runs retention sweeps.
	Sweeper interface {
		Sweep(ctx context.Context, threshold int) (retention.Report, error)
	}

	activities struct {
		feeds     news.FeedRepo
		syncer    FeedSyncer
		retention Sweeper
	}

	// SweepResult is what a retention sweep reports back to its workflow.
	SweepResult struct {
		RunID   string
		Deleted int
		Feeds   int
		// Set when the sweep stopped at its deadline before reaching every feed.
		Partial bool
	}
)

// Instance to make the workflow a bit more readable
var acts = activities{}

// Lists the ids of every feed in the system.
func (a activities) AllFeeds(ctx context.Context) ([]int64, error) {
	feeds, err := a.feeds.AllFeeds(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(feeds))
	for _, feed := range feeds {
		ids = append(ids, feed.ID)
	}

	return ids, nil
}

// Goes to the feed's url and stores any new items.
//
// Returns how many items were new.
func (a activities) SyncFeed(ctx context.Context, feedID int64) (int, error) {
	inserted, err := a.syncer.SyncFeed(ctx, feedID)
	if errors.Is(err, news.ErrNotFound) {
		// Deleted since the sync started, nothing to retry
		return 0, temporal.NewNonRetryableApplicationError("feed not found", errTypeNotFound, err)
	}
	if err != nil {
		return 0, fmt.Errorf("error syncing feed %d: %w", feedID, err)
	}

	return inserted, nil
}

// Trims old read items from every feed.
func (a activities) SweepRetention(ctx context.Context, threshold int) (SweepResult, error) {
	l := activity.GetLogger(ctx)

	report, err := a.retention.Sweep(ctx, threshold)
	switch {
	case errors.Is(err, news.ErrInvalidConfig):
		return SweepResult{}, temporal.NewNonRetryableApplicationError(
			"invalid retention config", errTypeInvalidConfig, err,
			newserrs.E(http.StatusUnprocessableEntity, err),
		)
	case errors.Is(err, news.ErrSweepInProgress):
		return SweepResult{}, temporal.NewNonRetryableApplicationError(
			"sweep in progress", errTypeSweepInProgress, err,
			newserrs.E(http.StatusConflict, news.ErrSweepInProgress),
		)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		// The manager's own deadline, not the activity's. The next run picks up the rest.
		l.Warn("retention sweep stopped at its deadline", "run_id", report.RunID, "deleted", report.Deleted, "feeds", report.Feeds)
		return SweepResult{
			RunID:   report.RunID,
			Deleted: report.Deleted,
			Feeds:   report.Feeds,
			Partial: true,
		}, nil
	case err != nil:
		// Whatever was deleted stays deleted, the retry just picks up the rest
		l.Error("retention sweep failed", "run_id", report.RunID, "deleted", report.Deleted, "error", err)
		return SweepResult{}, err
	}

	l.Info("retention sweep finished", "run_id", report.RunID, "deleted", report.Deleted, "feeds", report.Feeds)

	return SweepResult{
		RunID:   report.RunID,
		Deleted: report.Deleted,
		Feeds:   report.Feeds,
	}, nil
}
