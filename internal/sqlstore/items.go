package sqlstore

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/newsroom/internal/news"
)

// Items reads one page of the user's items.
func (r Repo) Items(ctx context.Context, q news.ItemQuery) ([]news.Item, error) {
	b := r.sb.Select("news_items.*").
		From("news_items").
		Join("news_feeds ON news_feeds.id = news_items.feed_id").
		Where(sq.Eq{"news_feeds.user_id": q.UserID})

	switch q.Type {
	case news.ItemTypeFeed:
		b = b.Where(sq.Eq{"news_items.feed_id": q.ID})
	case news.ItemTypeFolder:
		b = b.Where(sq.Eq{"news_feeds.folder_id": q.ID})
	case news.ItemTypeStarred:
		b = b.Where("(news_items.status & ?) <> 0", int(news.StatusStarred))
	}
	if !q.GetRead && q.Type != news.ItemTypeStarred {
		b = b.Where("(news_items.status & ?) <> 0", int(news.StatusUnread))
	}

	if q.OldestFirst {
		if q.Offset > 0 {
			b = b.Where(sq.Gt{"news_items.id": q.Offset})
		}
		b = b.OrderBy("news_items.id ASC")
	} else {
		if q.Offset > 0 {
			b = b.Where(sq.Lt{"news_items.id": q.Offset})
		}
		b = b.OrderBy("news_items.id DESC")
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error constructing sql: %s", err)
	}

	var items []news.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("error selecting items: %w", err)
	}

	return items, nil
}

func (r Repo) Item(ctx context.Context, userID string, id int64) (news.Item, error) {
	const q = `SELECT news_items.* FROM news_items
	JOIN news_feeds ON news_feeds.id = news_items.feed_id
	WHERE news_items.id = ? AND news_feeds.user_id = ?;`

	var item news.Item
	if err := r.db.GetContext(ctx, &item, r.db.Rebind(q), id, userID); err != nil {
		return news.Item{}, fmt.Errorf("error fetching item: %w", classify(err))
	}

	return item, nil
}

// InsertItems stores the items, skipping any whose guid the feed already has.
//
// Returns how many were new.
func (r Repo) InsertItems(ctx context.Context, items []news.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	inserted := 0
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now().Unix()
		for _, item := range items {
			if item.LastModified == 0 {
				item.LastModified = now
			}

			query, args, err := r.sb.Insert("news_items").
				Columns("feed_id", "guid", "url", "title", "author", "body",
					"enclosure_mime", "enclosure_link", "pub_date", "last_modified", "status").
				Values(item.FeedID, item.GUID, item.URL, item.Title, item.Author, item.Body,
					item.EnclosureMime, item.EnclosureLink, item.PubDate, item.LastModified, int(item.Status)).
				Suffix("ON CONFLICT (feed_id, guid) DO NOTHING").
				ToSql()
			if err != nil {
				return fmt.Errorf("error constructing sql: %s", err)
			}

			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("error inserting item %q: %w", item.GUID, classify(err))
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("error reading affected rows: %w", err)
			}
			inserted += int(n)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return inserted, nil
}

// SetItemStatus turns on the set bits and turns off the clear bits of one item.
func (r Repo) SetItemStatus(ctx context.Context, userID string, id int64, set, clear news.StatusFlag) error {
	owned, ownedArgs, err := ownedFeeds(userID).ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}

	query, args, err := r.sb.Update("news_items").
		Set("status", sq.Expr("(status | ?) & ?", int(set), int(^clear))).
		Set("last_modified", time.Now().Unix()).
		Where(sq.Eq{"id": id}).
		Where("feed_id IN ("+owned+")", ownedArgs...).
		ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("error updating item status: %w", classify(err))
	}

	return affectedOne(res)
}

// MarkRead clears the unread flag on every item up to and including newestItemID. The
// query's Type and ID narrow it to a feed or a folder.
func (r Repo) MarkRead(ctx context.Context, userID string, q news.ItemQuery, newestItemID int64) error {
	feeds := ownedFeeds(userID)
	switch q.Type {
	case news.ItemTypeFeed:
		feeds = feeds.Where(sq.Eq{"id": q.ID})
	case news.ItemTypeFolder:
		feeds = feeds.Where(sq.Eq{"folder_id": q.ID})
	}
	owned, ownedArgs, err := feeds.ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}

	query, args, err := r.sb.Update("news_items").
		Set("status", sq.Expr("status & ?", int(^news.StatusUnread))).
		Set("last_modified", time.Now().Unix()).
		Where(sq.LtOrEq{"id": newestItemID}).
		Where("(status & ?) <> 0", int(news.StatusUnread)).
		Where("feed_id IN ("+owned+")", ownedArgs...).
		ToSql()
	if err != nil {
		return fmt.Errorf("error constructing sql: %s", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error marking items read: %w", classify(err))
	}

	return nil
}

func (r Repo) StarredCount(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM news_items
	JOIN news_feeds ON news_feeds.id = news_items.feed_id
	WHERE news_feeds.user_id = ? AND (news_items.status & ?) <> 0;`

	var count int
	if err := r.db.GetContext(ctx, &count, r.db.Rebind(q), userID, int(news.StatusStarred)); err != nil {
		return 0, fmt.Errorf("error counting starred items: %w", err)
	}

	return count, nil
}

// NewestItemID is the highest item id the user can see, zero if they have no items.
func (r Repo) NewestItemID(ctx context.Context, userID string) (int64, error) {
	const q = `SELECT COALESCE(MAX(news_items.id), 0) FROM news_items
	JOIN news_feeds ON news_feeds.id = news_items.feed_id
	WHERE news_feeds.user_id = ?;`

	var id int64
	if err := r.db.GetContext(ctx, &id, r.db.Rebind(q), userID); err != nil {
		return 0, fmt.Errorf("error fetching newest item id: %w", err)
	}

	return id, nil
}
