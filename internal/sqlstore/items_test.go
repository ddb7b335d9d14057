package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsroom/internal/news"
)

func itemIDs(items []news.Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestItems_Paging(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed := seedFeed(t, r, "ada", 0,
		news.StatusUnread, news.StatusUnread, 0, news.StatusUnread, news.StatusUnread|news.StatusStarred)
	all, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, GetRead: true, OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, all, 5)
	ids := itemIDs(all)

	// Newest first, unread only, two at a time.
	page, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[4], ids[3]}, itemIDs(page))

	page, err = r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, Limit: 2, Offset: ids[3]})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[0]}, itemIDs(page))

	// Oldest first including read items.
	page, err = r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, Limit: 3, Offset: ids[0], GetRead: true, OldestFirst: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[1], ids[2], ids[3]}, itemIDs(page))

	starred, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeStarred})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[4]}, itemIDs(starred))

	theirs, err := r.Items(ctx, news.ItemQuery{UserID: "grace", Type: news.ItemTypeFeed, ID: feed.ID, GetRead: true})
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestItems_Folder(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	folder, err := r.InsertFolder(ctx, news.Folder{UserID: "ada", Name: "tech"})
	require.NoError(t, err)
	filed := seedFeed(t, r, "ada", 0, news.StatusUnread)
	require.NoError(t, r.MoveFeed(ctx, "ada", filed.ID, &folder.ID))
	seedFeed(t, r, "ada", 0, news.StatusUnread)

	items, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFolder, ID: folder.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, filed.ID, items[0].FeedID)
}

func TestInsertItems_SkipsKnownGUIDs(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed := seedFeed(t, r, "ada", 0, news.StatusUnread, news.StatusUnread)

	n, err := r.InsertItems(ctx, []news.Item{
		{FeedID: feed.ID, GUID: "guid-0", Title: "again"},
		{FeedID: feed.ID, GUID: "guid-new", Title: "new", Status: news.StatusUnread},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = r.InsertItems(ctx, []news.Item{{FeedID: 9999, GUID: "orphan"}})
	assert.ErrorIs(t, err, news.ErrConstraint)
}

func TestSetItemStatus(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	seedFeed(t, r, "ada", 0, news.StatusUnread|news.StatusUpdated)
	items, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeAll, GetRead: true})
	require.NoError(t, err)
	require.Len(t, items, 1)
	id := items[0].ID

	require.NoError(t, r.SetItemStatus(ctx, "ada", id, news.StatusStarred, news.StatusUnread))
	item, err := r.Item(ctx, "ada", id)
	require.NoError(t, err)
	assert.True(t, item.Starred())
	assert.False(t, item.Unread())
	assert.True(t, item.Status.Has(news.StatusUpdated))

	require.NoError(t, r.SetItemStatus(ctx, "ada", id, news.StatusUnread, news.StatusStarred))
	item, err = r.Item(ctx, "ada", id)
	require.NoError(t, err)
	assert.Equal(t, news.StatusUnread|news.StatusUpdated, item.Status)

	assert.ErrorIs(t, r.SetItemStatus(ctx, "grace", id, news.StatusStarred, 0), news.ErrNotFound)
	_, err = r.Item(ctx, "grace", id)
	assert.ErrorIs(t, err, news.ErrNotFound)
}

func TestMarkRead(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	a := seedFeed(t, r, "ada", 0, news.StatusUnread, news.StatusUnread, news.StatusUnread)
	b := seedFeed(t, r, "ada", 0, news.StatusUnread)

	items, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: a.ID, OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Only up to the second item of feed a.
	require.NoError(t, r.MarkRead(ctx, "ada", news.ItemQuery{Type: news.ItemTypeFeed, ID: a.ID}, items[1].ID))
	counts, err := r.UnreadCounts(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[a.ID])
	assert.Equal(t, 1, counts[b.ID])

	newest, err := r.NewestItemID(ctx, "ada")
	require.NoError(t, err)
	require.NoError(t, r.MarkRead(ctx, "ada", news.ItemQuery{Type: news.ItemTypeAll}, newest))
	counts, err = r.UnreadCounts(ctx, "ada")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestStarredCountAndNewest(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	newest, err := r.NewestItemID(ctx, "ada")
	require.NoError(t, err)
	assert.Zero(t, newest)

	seedFeed(t, r, "ada", 0, news.StatusStarred, news.StatusStarred|news.StatusUnread, 0)
	seedFeed(t, r, "grace", 0, news.StatusStarred)

	count, err := r.StarredCount(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeAll, GetRead: true})
	require.NoError(t, err)
	newest, err = r.NewestItemID(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, items[0].ID, newest)
}
