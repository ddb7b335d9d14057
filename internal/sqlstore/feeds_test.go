package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsroom/internal/news"
)

func TestInsertFeed(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed, err := r.InsertFeed(ctx, news.Feed{
		UserID:            "ada",
		URL:               "https://example.com/feed.xml",
		Title:             "Example",
		ArticlesPerUpdate: 10,
	})
	require.NoError(t, err)
	assert.NotZero(t, feed.ID)
	assert.Equal(t, "Example", feed.Title)
	assert.Equal(t, 10, feed.ArticlesPerUpdate)
	assert.Nil(t, feed.FolderID)
	assert.Nil(t, feed.LastSyncedAt)

	byURL, err := r.FeedByURL(ctx, "ada", "https://example.com/feed.xml")
	require.NoError(t, err)
	assert.Equal(t, feed, byURL)

	_, err = r.InsertFeed(ctx, news.Feed{UserID: "ada", URL: "https://example.com/feed.xml"})
	assert.ErrorIs(t, err, news.ErrConflict)

	_, err = r.InsertFeed(ctx, news.Feed{UserID: "grace", URL: "https://example.com/feed.xml"})
	assert.NoError(t, err)
}

func TestInsertFeed_Invalid(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	_, err := r.InsertFeed(ctx, news.Feed{UserID: "ada", URL: "https://example.com/a.xml", ArticlesPerUpdate: -1})
	assert.ErrorIs(t, err, news.ErrInvalidConfig)

	missing := int64(404)
	_, err = r.InsertFeed(ctx, news.Feed{UserID: "ada", URL: "https://example.com/b.xml", FolderID: &missing})
	assert.ErrorIs(t, err, news.ErrConstraint)
}

func TestUpdateFeed(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed := seedFeed(t, r, "ada", 0)
	synced := time.Unix(1700000000, 0)
	perUpdate := 25
	require.NoError(t, r.UpdateFeed(ctx, feed.ID, news.UpdateFeedArgs{
		Title:             "Renamed",
		Link:              "https://example.com",
		ArticlesPerUpdate: &perUpdate,
		LastSynced:        synced,
	}))

	got, err := r.Feed(ctx, "ada", feed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "https://example.com", got.Link)
	assert.Equal(t, 25, got.ArticlesPerUpdate)
	require.NotNil(t, got.LastSyncedAt)
	assert.Equal(t, synced.Unix(), *got.LastSyncedAt)

	negative := -3
	err = r.UpdateFeed(ctx, feed.ID, news.UpdateFeedArgs{ArticlesPerUpdate: &negative})
	assert.ErrorIs(t, err, news.ErrInvalidConfig)

	assert.ErrorIs(t, r.UpdateFeed(ctx, 9999, news.UpdateFeedArgs{Title: "x"}), news.ErrNotFound)
}

func TestMoveAndRenameFeed(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	folder, err := r.InsertFolder(ctx, news.Folder{UserID: "ada", Name: "tech"})
	require.NoError(t, err)
	other, err := r.InsertFolder(ctx, news.Folder{UserID: "grace", Name: "tech"})
	require.NoError(t, err)
	feed := seedFeed(t, r, "ada", 0)

	require.NoError(t, r.MoveFeed(ctx, "ada", feed.ID, &folder.ID))
	got, err := r.Feed(ctx, "ada", feed.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FolderID)
	assert.Equal(t, folder.ID, *got.FolderID)

	assert.ErrorIs(t, r.MoveFeed(ctx, "ada", feed.ID, &other.ID), news.ErrNotFound)

	require.NoError(t, r.MoveFeed(ctx, "ada", feed.ID, nil))
	got, err = r.Feed(ctx, "ada", feed.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FolderID)

	require.NoError(t, r.RenameFeed(ctx, "ada", feed.ID, "Mine"))
	got, err = r.Feed(ctx, "ada", feed.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)

	assert.ErrorIs(t, r.RenameFeed(ctx, "grace", feed.ID, "Theirs"), news.ErrNotFound)
}

func TestDeleteFeed(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed := seedFeed(t, r, "ada", 0, 0, news.StatusUnread, news.StatusStarred)

	assert.ErrorIs(t, r.DeleteFeed(ctx, "grace", feed.ID), news.ErrNotFound)
	require.NoError(t, r.DeleteFeed(ctx, "ada", feed.ID))

	_, err := r.FeedByID(ctx, feed.ID)
	assert.ErrorIs(t, err, news.ErrNotFound)

	items, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeAll, GetRead: true})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUnreadCounts(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	a := seedFeed(t, r, "ada", 0, news.StatusUnread, news.StatusUnread|news.StatusStarred, 0)
	b := seedFeed(t, r, "ada", 0, 0)
	seedFeed(t, r, "grace", 0, news.StatusUnread)

	counts, err := r.UnreadCounts(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{a.ID: 2}, counts)
	assert.NotContains(t, counts, b.ID)

	all, err := r.AllFeeds(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
