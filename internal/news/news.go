// Package news holds the core types of the feed reader: folders, feeds and the items they
// produce, along with the repository surfaces that persist them.
package news

import (
	"errors"
)

var (
	ErrConflict = errors.New("resource already exists")
	ErrNotFound = errors.New("resource not found")
	// ErrConstraint is an integrity violation other than a uniqueness conflict,
	// e.g. a feed pointing at a folder that doesn't exist.
	ErrConstraint      = errors.New("constraint violation")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrSweepInProgress = errors.New("retention sweep already in progress")
)

// StatusFlag is the bitmask stored on every item.
type StatusFlag int

const (
	StatusUnread  StatusFlag = 0x02
	StatusStarred StatusFlag = 0x04
	StatusDeleted StatusFlag = 0x08
	StatusUpdated StatusFlag = 0x10

	// StatusProtected are the bits that keep an item out of retention sweeps.
	StatusProtected = StatusUnread | StatusStarred
)

func (s StatusFlag) Has(f StatusFlag) bool {
	return s&f == f
}

type (
	Folder struct {
		ID        int64  `db:"id"`
		UserID    string `db:"user_id"`
		Name      string `db:"name"`
		CreatedAt int64  `db:"created_at"`
	}

	// Feed is a subscription of a single user to an RSS/Atom source.
	Feed struct {
		ID       int64  `db:"id"`
		UserID   string `db:"user_id"`
		URL      string `db:"url"`
		Title    string `db:"title"`
		Link     string `db:"link"`
		FolderID *int64 `db:"folder_id"`
		// How many items the source served on its last refresh. Read items beyond this
		// count are candidates for retention.
		ArticlesPerUpdate int    `db:"articles_per_update"`
		LastSyncedAt      *int64 `db:"last_synced_at"`
		CreatedAt         int64  `db:"created_at"`
		UpdatedAt         int64  `db:"updated_at"`
	}

	Item struct {
		ID            int64      `db:"id"`
		FeedID        int64      `db:"feed_id"`
		GUID          string     `db:"guid"`
		URL           string     `db:"url"`
		Title         string     `db:"title"`
		Author        string     `db:"author"`
		Body          string     `db:"body"`
		EnclosureMime string     `db:"enclosure_mime"`
		EnclosureLink string     `db:"enclosure_link"`
		PubDate       int64      `db:"pub_date"`
		LastModified  int64      `db:"last_modified"`
		Status        StatusFlag `db:"status"`
	}
)

func (i Item) Unread() bool  { return i.Status.Has(StatusUnread) }
func (i Item) Starred() bool { return i.Status.Has(StatusStarred) }

// Eligible reports whether a retention sweep is allowed to delete the item.
func (i Item) Eligible() bool {
	return i.Status&StatusProtected == 0
}
