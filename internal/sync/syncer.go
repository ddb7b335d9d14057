package sync

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	newserrs "github.com/jdholdren/newsroom/internal/errors"
	"github.com/jdholdren/newsroom/internal/logger"
	"github.com/jdholdren/newsroom/internal/news"
)

// FeedFetcher is what the syncer needs from a [Fetcher].
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) (Result, error)
}

// Syncer keeps stored feeds in step with their sources.
type Syncer struct {
	repo    news.Repository
	fetcher FeedFetcher
}

func NewSyncer(repo news.Repository, fetcher FeedFetcher) *Syncer {
	return &Syncer{
		repo:    repo,
		fetcher: fetcher,
	}
}

// SyncFeed pulls the feed's source and stores any items it hasn't seen, unread.
//
// The feed's articles_per_update becomes the number of items the source served, so
// retention keeps at least one full page of the source around.
func (s *Syncer) SyncFeed(ctx context.Context, feedID int64) (int, error) {
	ctx = logger.Ctx(ctx, slog.Int64("feed_id", feedID))

	feed, err := s.repo.FeedByID(ctx, feedID)
	if err != nil {
		return 0, err
	}

	res, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	if res.NotModified {
		slog.DebugContext(ctx, "feed not modified")
		return 0, s.repo.UpdateFeed(ctx, feed.ID, news.UpdateFeedArgs{LastSynced: now})
	}

	for i := range res.Items {
		res.Items[i].FeedID = feed.ID
	}
	inserted, err := s.repo.InsertItems(ctx, res.Items)
	if err != nil {
		return 0, fmt.Errorf("error inserting items: %w", err)
	}

	args := news.UpdateFeedArgs{
		Link:       res.Link,
		LastSynced: now,
	}
	if feed.Title == "" { // Don't clobber a title the user picked
		args.Title = res.Title
	}
	if n := len(res.Items); n > 0 {
		args.ArticlesPerUpdate = &n
	}
	if err := s.repo.UpdateFeed(ctx, feed.ID, args); err != nil {
		return 0, fmt.Errorf("error updating feed: %w", err)
	}

	slog.DebugContext(ctx, "synced feed", "fetched", len(res.Items), "inserted", inserted)
	return inserted, nil
}

// SyncAll refreshes every feed. A feed that fails is logged and skipped.
//
// Returns the number of feeds that synced.
func (s *Syncer) SyncAll(ctx context.Context) (int, error) {
	feeds, err := s.repo.AllFeeds(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing feeds: %w", err)
	}

	synced := 0
	for _, feed := range feeds {
		if err := ctx.Err(); err != nil {
			return synced, err
		}

		if _, err := s.SyncFeed(ctx, feed.ID); err != nil {
			slog.ErrorContext(ctx, "failed to sync feed", "feed_id", feed.ID, "url", feed.URL, "error", err)
			continue
		}
		synced++
	}

	return synced, nil
}

// CreateFeed subscribes the user to url, filed under folderID if it's set, and pulls it
// once. If that first pull fails the feed is removed again.
func (s *Syncer) CreateFeed(ctx context.Context, userID, url string, folderID *int64) (news.Feed, error) {
	if folderID != nil {
		if _, err := s.repo.Folder(ctx, userID, *folderID); err != nil {
			return news.Feed{}, err
		}
	}

	feed, err := s.repo.InsertFeed(ctx, news.Feed{
		UserID:   userID,
		URL:      url,
		FolderID: folderID,
	})
	if err != nil {
		return news.Feed{}, err
	}

	if _, err := s.SyncFeed(ctx, feed.ID); err != nil {
		if delErr := s.repo.DeleteFeed(ctx, userID, feed.ID); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove unsyncable feed", "feed_id", feed.ID, "error", delErr)
		}

		return news.Feed{}, newserrs.E(http.StatusUnprocessableEntity, fmt.Errorf("error syncing feed: %w", err))
	}

	return s.repo.FeedByID(ctx, feed.ID)
}
