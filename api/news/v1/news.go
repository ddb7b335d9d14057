// Package v1 is the wire format of the reader's JSON API.
package v1

import (
	"net/url"
	"strings"

	"github.com/jdholdren/newsroom/api"
)

type (
	Folder struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	FoldersResponse struct {
		Folders []Folder `json:"folders"`
	}

	// FolderRequest creates or renames a folder.
	FolderRequest struct {
		Name string `json:"name"`
	}
)

func (r FolderRequest) Validate() error {
	var errs []api.ErrorDetail
	if strings.TrimSpace(r.Name) == "" {
		errs = append(errs, api.ErrorDetail{Field: "name", Error: "name is required"})
	}
	if len(r.Name) > 100 {
		errs = append(errs, api.ErrorDetail{Field: "name", Error: "name must be at most 100 characters"})
	}

	return api.Invalid(errs...)
}

type (
	Feed struct {
		ID                int64  `json:"id"`
		URL               string `json:"url"`
		Title             string `json:"title"`
		Link              string `json:"link"`
		FolderID          int64  `json:"folderId"` // 0 when the feed isn't in a folder
		UnreadCount       int    `json:"unreadCount"`
		ArticlesPerUpdate int    `json:"articlesPerUpdate"`
		Added             int64  `json:"added"`
		LastSynced        *int64 `json:"lastSynced"`
	}

	FeedsResponse struct {
		Feeds        []Feed `json:"feeds"`
		StarredCount int    `json:"starredCount"`
		NewestItemID *int64 `json:"newestItemId,omitempty"`
	}

	CreateFeedRequest struct {
		URL      string `json:"url"`
		FolderID int64  `json:"folderId"`
	}

	MoveFeedRequest struct {
		FolderID int64 `json:"folderId"`
	}

	RenameFeedRequest struct {
		FeedTitle string `json:"feedTitle"`
	}
)

// Validate checks that the body (minus logic checks) is valid.
//
// Returns an api.Error if the request is invalid.
func (r CreateFeedRequest) Validate() error {
	var errs []api.ErrorDetail
	if r.URL == "" {
		errs = append(errs, api.ErrorDetail{Field: "url", Error: "url is required"})
	} else if u, err := url.Parse(r.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, api.ErrorDetail{Field: "url", Error: "url must be an absolute http(s) url"})
	}
	if r.FolderID < 0 {
		errs = append(errs, api.ErrorDetail{Field: "folderId", Error: "folderId must not be negative"})
	}

	return api.Invalid(errs...)
}

func (r MoveFeedRequest) Validate() error {
	if r.FolderID < 0 {
		return api.Invalid(api.ErrorDetail{Field: "folderId", Error: "folderId must not be negative"})
	}

	return nil
}

func (r RenameFeedRequest) Validate() error {
	if strings.TrimSpace(r.FeedTitle) == "" {
		return api.Invalid(api.ErrorDetail{Field: "feedTitle", Error: "feedTitle is required"})
	}

	return nil
}

type (
	Item struct {
		ID            int64  `json:"id"`
		GUID          string `json:"guid"`
		URL           string `json:"url"`
		Title         string `json:"title"`
		Author        string `json:"author"`
		PubDate       int64  `json:"pubDate"`
		Body          string `json:"body"`
		EnclosureMime string `json:"enclosureMime"`
		EnclosureLink string `json:"enclosureLink"`
		FeedID        int64  `json:"feedId"`
		Unread        bool   `json:"unread"`
		Starred       bool   `json:"starred"`
		LastModified  int64  `json:"lastModified"`
	}

	ItemsResponse struct {
		Items []Item `json:"items"`
	}

	// MarkReadRequest marks everything up to and including an item as read.
	MarkReadRequest struct {
		NewestItemID int64 `json:"newestItemId"`
	}
)

func (r MarkReadRequest) Validate() error {
	if r.NewestItemID <= 0 {
		return api.Invalid(api.ErrorDetail{Field: "newestItemId", Error: "newestItemId must be positive"})
	}

	return nil
}

type (
	RetentionRequest struct {
		Threshold int `json:"threshold"`
	}

	RetentionResponse struct {
		RunID   string `json:"runId"`
		Deleted int    `json:"deleted"`
		Feeds   int    `json:"feeds"`
		// The sweep stopped before reaching every feed. Running it again finishes the job.
		Partial bool `json:"partial"`
	}
)

func (r RetentionRequest) Validate() error {
	if r.Threshold < 0 {
		return api.Invalid(api.ErrorDetail{Field: "threshold", Error: "threshold must not be negative"})
	}

	return nil
}
