package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/newsroom/internal/news"
)

// OverflowingFeeds computes, per feed, how many read and unstarred items it holds beyond its
// articles_per_update, keeping only those above threshold.
func (r Repo) OverflowingFeeds(ctx context.Context, threshold int) ([]news.FeedOverflow, error) {
	const q = `SELECT news_items.feed_id AS feed_id, COUNT(*) - news_feeds.articles_per_update AS size
	FROM news_items
	JOIN news_feeds ON news_feeds.id = news_items.feed_id
	WHERE (news_items.status & ?) = 0
	GROUP BY news_items.feed_id, news_feeds.articles_per_update
	HAVING COUNT(*) - news_feeds.articles_per_update > ?
	ORDER BY news_items.feed_id;`

	var overflows []news.FeedOverflow
	if err := r.db.SelectContext(ctx, &overflows, r.db.Rebind(q), int(news.StatusProtected), threshold); err != nil {
		return nil, fmt.Errorf("error computing feed overflow: %w", classify(err))
	}

	return overflows, nil
}

// TrimFeed deletes the feed's oldest eligible items so that no more than
// articles_per_update + threshold of them remain.
//
// The overflow is recounted inside the transaction so a concurrent read/star change can't
// make the delete overshoot.
func (r Repo) TrimFeed(ctx context.Context, feedID int64, threshold int) (int64, error) {
	const (
		perUpdateQ = `SELECT articles_per_update FROM news_feeds WHERE id = ?;`
		eligibleQ  = `SELECT COUNT(*) FROM news_items WHERE feed_id = ? AND (status & ?) = 0;`
		deleteQ    = `DELETE FROM news_items WHERE id IN (
			SELECT id FROM news_items
			WHERE feed_id = ? AND (status & ?) = 0
			ORDER BY id ASC
			LIMIT ?
		);`
	)

	protected := int(news.StatusProtected)
	var deleted int64
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var perUpdate int
		err := tx.GetContext(ctx, &perUpdate, tx.Rebind(perUpdateQ), feedID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil // Deleted since the overflow was computed
		}
		if err != nil {
			return fmt.Errorf("error fetching feed retention: %w", classify(err))
		}

		var eligible int
		if err := tx.GetContext(ctx, &eligible, tx.Rebind(eligibleQ), feedID, protected); err != nil {
			return fmt.Errorf("error counting eligible items: %w", classify(err))
		}

		limit := eligible - perUpdate - threshold
		if limit <= 0 {
			return nil
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(deleteQ), feedID, protected, limit)
		if err != nil {
			return fmt.Errorf("error deleting items: %w", classify(err))
		}
		deleted, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("error reading affected rows: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
