package api

import (
	v1 "github.com/jdholdren/newsroom/api/news/v1"
	"github.com/jdholdren/newsroom/internal/news"
)

func apiFolder(f news.Folder) v1.Folder {
	return v1.Folder{
		ID:   f.ID,
		Name: f.Name,
	}
}

func apiFeed(f news.Feed, unread int) v1.Feed {
	var folderID int64
	if f.FolderID != nil {
		folderID = *f.FolderID
	}

	return v1.Feed{
		ID:                f.ID,
		URL:               f.URL,
		Title:             f.Title,
		Link:              f.Link,
		FolderID:          folderID,
		UnreadCount:       unread,
		ArticlesPerUpdate: f.ArticlesPerUpdate,
		Added:             f.CreatedAt,
		LastSynced:        f.LastSyncedAt,
	}
}

func apiItem(i news.Item) v1.Item {
	return v1.Item{
		ID:            i.ID,
		GUID:          i.GUID,
		URL:           i.URL,
		Title:         i.Title,
		Author:        i.Author,
		PubDate:       i.PubDate,
		Body:          i.Body,
		EnclosureMime: i.EnclosureMime,
		EnclosureLink: i.EnclosureLink,
		FeedID:        i.FeedID,
		Unread:        i.Unread(),
		Starred:       i.Starred(),
		LastModified:  i.LastModified,
	}
}

// A folder id of zero on the wire means no folder.
func folderRef(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
