package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/newsroom/internal/news"
)

func (r Repo) Feeds(ctx context.Context, userID string) ([]news.Feed, error) {
	const q = `SELECT * FROM news_feeds WHERE user_id = ? ORDER BY id;`

	var feeds []news.Feed
	if err := r.db.SelectContext(ctx, &feeds, r.db.Rebind(q), userID); err != nil {
		return nil, fmt.Errorf("error selecting feeds: %w", err)
	}

	return feeds, nil
}

func (r Repo) Feed(ctx context.Context, userID string, id int64) (news.Feed, error) {
	const q = `SELECT * FROM news_feeds WHERE id = ? AND user_id = ?;`

	var feed news.Feed
	if err := r.db.GetContext(ctx, &feed, r.db.Rebind(q), id, userID); err != nil {
		return news.Feed{}, fmt.Errorf("error fetching feed: %w", classify(err))
	}

	return feed, nil
}

// FeedByID fetches a feed regardless of who owns it. Used by background refreshes.
func (r Repo) FeedByID(ctx context.Context, id int64) (news.Feed, error) {
	const q = `SELECT * FROM news_feeds WHERE id = ?;`

	var feed news.Feed
	if err := r.db.GetContext(ctx, &feed, r.db.Rebind(q), id); err != nil {
		return news.Feed{}, fmt.Errorf("error fetching feed: %w", classify(err))
	}

	return feed, nil
}

func (r Repo) FeedByURL(ctx context.Context, userID, url string) (news.Feed, error) {
	const q = `SELECT * FROM news_feeds WHERE user_id = ? AND url = ?;`

	var feed news.Feed
	if err := r.db.GetContext(ctx, &feed, r.db.Rebind(q), userID, url); err != nil {
		return news.Feed{}, fmt.Errorf("error fetching feed: %w", classify(err))
	}

	return feed, nil
}

// AllFeeds retrieves _all_ feeds from the database.
func (r Repo) AllFeeds(ctx context.Context) ([]news.Feed, error) {
	const q = `SELECT * FROM news_feeds ORDER BY id;`

	var feeds []news.Feed
	if err := r.db.SelectContext(ctx, &feeds, q); err != nil {
		return nil, fmt.Errorf("error selecting all feeds: %w", err)
	}

	return feeds, nil
}

func (r Repo) InsertFeed(ctx context.Context, feed news.Feed) (news.Feed, error) {
	if feed.ArticlesPerUpdate < 0 {
		return news.Feed{}, fmt.Errorf("articles per update must not be negative, got %d: %w", feed.ArticlesPerUpdate, news.ErrInvalidConfig)
	}

	now := time.Now().Unix()
	id, err := r.insertReturningID(ctx, r.db, r.sb.Insert("news_feeds").
		Columns("user_id", "url", "title", "link", "folder_id", "articles_per_update", "created_at", "updated_at").
		Values(feed.UserID, feed.URL, feed.Title, feed.Link, feed.FolderID, feed.ArticlesPerUpdate, now, now),
	)
	if err != nil {
		return news.Feed{}, fmt.Errorf("error inserting feed: %w", classify(err))
	}

	return r.FeedByID(ctx, id)
}

func (r Repo) UpdateFeed(ctx context.Context, id int64, args news.UpdateFeedArgs) error {
	q := r.sb.Update("news_feeds").Set("updated_at", time.Now().Unix())
	if args.Title != "" {
		q = q.Set("title", args.Title)
	}
	if args.Link != "" {
		q = q.Set("link", args.Link)
	}
	if args.ArticlesPerUpdate != nil {
		if *args.ArticlesPerUpdate < 0 {
			return fmt.Errorf("articles per update must not be negative, got %d: %w", *args.ArticlesPerUpdate, news.ErrInvalidConfig)
		}
		q = q.Set("articles_per_update", *args.ArticlesPerUpdate)
	}
	if !args.LastSynced.IsZero() {
		q = q.Set("last_synced_at", args.LastSynced.Unix())
	}
	q = q.Where(sq.Eq{"id": id})

	query, qArgs, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}
	res, err := r.db.ExecContext(ctx, query, qArgs...)
	if err != nil {
		return fmt.Errorf("error executing feed update: %w", classify(err))
	}

	return affectedOne(res)
}

// MoveFeed files the feed under another of the user's folders, or at the root when folderID
// is nil.
func (r Repo) MoveFeed(ctx context.Context, userID string, id int64, folderID *int64) error {
	if folderID != nil {
		if _, err := r.Folder(ctx, userID, *folderID); err != nil {
			return err
		}
	}

	const q = `UPDATE news_feeds SET folder_id = ?, updated_at = ? WHERE id = ? AND user_id = ?;`
	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), folderID, time.Now().Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("error moving feed: %w", classify(err))
	}

	return affectedOne(res)
}

func (r Repo) RenameFeed(ctx context.Context, userID string, id int64, title string) error {
	const q = `UPDATE news_feeds SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?;`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), title, time.Now().Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("error renaming feed: %w", classify(err))
	}

	return affectedOne(res)
}

// DeleteFeed removes the feed and its items together.
func (r Repo) DeleteFeed(ctx context.Context, userID string, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const (
			delItems = `DELETE FROM news_items WHERE feed_id IN (
				SELECT id FROM news_feeds WHERE id = ? AND user_id = ?
			);`
			delFeed = `DELETE FROM news_feeds WHERE id = ? AND user_id = ?;`
		)

		if _, err := tx.ExecContext(ctx, tx.Rebind(delItems), id, userID); err != nil {
			return fmt.Errorf("error deleting feed items: %w", classify(err))
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(delFeed), id, userID)
		if err != nil {
			return fmt.Errorf("error deleting feed: %w", classify(err))
		}

		return affectedOne(res)
	})
}

// UnreadCounts maps each of the user's feeds to its number of unread items. Feeds with
// nothing unread are absent.
func (r Repo) UnreadCounts(ctx context.Context, userID string) (map[int64]int, error) {
	const q = `SELECT news_items.feed_id AS feed_id, COUNT(*) AS unread
	FROM news_items
	JOIN news_feeds ON news_feeds.id = news_items.feed_id
	WHERE news_feeds.user_id = ? AND (news_items.status & ?) <> 0
	GROUP BY news_items.feed_id;`

	var rows []struct {
		FeedID int64 `db:"feed_id"`
		Unread int   `db:"unread"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), userID, int(news.StatusUnread)); err != nil {
		return nil, fmt.Errorf("error counting unread items: %w", err)
	}

	counts := make(map[int64]int, len(rows))
	for _, row := range rows {
		counts[row.FeedID] = row.Unread
	}

	return counts, nil
}
