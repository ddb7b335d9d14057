package news

import (
	"context"
	"time"
)

type (
	FolderRepo interface {
		Folders(ctx context.Context, userID string) ([]Folder, error)
		Folder(ctx context.Context, userID string, id int64) (Folder, error)
		FolderByName(ctx context.Context, userID, name string) (Folder, error)
		InsertFolder(ctx context.Context, folder Folder) (Folder, error)
		RenameFolder(ctx context.Context, userID string, id int64, name string) error
		DeleteFolder(ctx context.Context, userID string, id int64) error
	}

	FeedRepo interface {
		Feeds(ctx context.Context, userID string) ([]Feed, error)
		Feed(ctx context.Context, userID string, id int64) (Feed, error)
		FeedByID(ctx context.Context, id int64) (Feed, error)
		FeedByURL(ctx context.Context, userID, url string) (Feed, error)
		AllFeeds(ctx context.Context) ([]Feed, error)
		InsertFeed(ctx context.Context, feed Feed) (Feed, error)
		UpdateFeed(ctx context.Context, id int64, args UpdateFeedArgs) error
		MoveFeed(ctx context.Context, userID string, id int64, folderID *int64) error
		RenameFeed(ctx context.Context, userID string, id int64, title string) error
		DeleteFeed(ctx context.Context, userID string, id int64) error
		UnreadCounts(ctx context.Context, userID string) (map[int64]int, error)
	}

	ItemRepo interface {
		Items(ctx context.Context, q ItemQuery) ([]Item, error)
		Item(ctx context.Context, userID string, id int64) (Item, error)
		InsertItems(ctx context.Context, items []Item) (int, error)
		SetItemStatus(ctx context.Context, userID string, id int64, set, clear StatusFlag) error
		MarkRead(ctx context.Context, userID string, q ItemQuery, newestItemID int64) error
		StarredCount(ctx context.Context, userID string) (int, error)
		NewestItemID(ctx context.Context, userID string) (int64, error)
	}

	// RetentionRepo is the storage half of a retention sweep.
	RetentionRepo interface {
		// OverflowingFeeds lists feeds whose eligible item count, less their
		// articles_per_update, exceeds threshold.
		OverflowingFeeds(ctx context.Context, threshold int) ([]FeedOverflow, error)
		// TrimFeed deletes the oldest eligible items of a feed in a single transaction
		// and returns how many were removed.
		TrimFeed(ctx context.Context, feedID int64, threshold int) (int64, error)
	}

	Repository interface {
		FolderRepo
		FeedRepo
		ItemRepo
		RetentionRepo
	}

	// Holds the optional fields for updating a feed.
	UpdateFeedArgs struct {
		Title             string
		Link              string
		ArticlesPerUpdate *int
		LastSynced        time.Time
	}

	FeedOverflow struct {
		FeedID int64 `db:"feed_id"`
		Size   int   `db:"size"`
	}
)

// ItemType selects which items a query spans.
type ItemType int

const (
	ItemTypeFeed ItemType = iota
	ItemTypeFolder
	ItemTypeStarred
	ItemTypeAll
)

// ItemQuery is a keyset page over a user's items.
//
// Offset is the id of the last item already seen, zero to start from the beginning.
type ItemQuery struct {
	UserID      string
	Type        ItemType
	ID          int64 // Feed or folder id, depending on Type
	Limit       int
	Offset      int64
	GetRead     bool
	OldestFirst bool
}
