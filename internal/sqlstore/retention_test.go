package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsroom/internal/news"
)

// eightReadTwoStarred are the statuses of a feed with 8 eligible items followed by 2 starred
// ones.
var eightReadTwoStarred = []news.StatusFlag{0, 0, 0, 0, 0, 0, 0, 0, news.StatusStarred, news.StatusStarred}

func TestOverflowingFeeds(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	over := seedFeed(t, r, "ada", 5, eightReadTwoStarred...)
	seedFeed(t, r, "ada", 10, eightReadTwoStarred...)
	// Unread items don't count towards the overflow.
	seedFeed(t, r, "grace", 0, news.StatusUnread, news.StatusUnread, news.StatusUnread)

	overflows, err := r.OverflowingFeeds(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []news.FeedOverflow{{FeedID: over.ID, Size: 3}}, overflows)

	overflows, err = r.OverflowingFeeds(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, overflows)
}

func TestTrimFeed_DeletesOldestEligible(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed := seedFeed(t, r, "ada", 5, eightReadTwoStarred...)
	before, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, GetRead: true, OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, before, 10)

	deleted, err := r.TrimFeed(ctx, feed.ID, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	after, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, GetRead: true, OldestFirst: true})
	require.NoError(t, err)
	assert.Equal(t, itemIDs(before[3:]), itemIDs(after))

	// Running again changes nothing.
	deleted, err = r.TrimFeed(ctx, feed.ID, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestTrimFeed_ThresholdAboveOverflow(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	feed := seedFeed(t, r, "ada", 5, eightReadTwoStarred...)

	deleted, err := r.TrimFeed(ctx, feed.ID, 5)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestTrimFeed_NeverTouchesProtected(t *testing.T) {
	var (
		r   = newTestRepo(t)
		ctx = context.Background()
	)

	// Protected items are interleaved with, and older than, the eligible ones.
	feed := seedFeed(t, r, "ada", 0,
		news.StatusStarred, news.StatusUnread, 0, news.StatusUnread|news.StatusStarred, 0, 0)

	deleted, err := r.TrimFeed(ctx, feed.ID, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	left, err := r.Items(ctx, news.ItemQuery{UserID: "ada", Type: news.ItemTypeFeed, ID: feed.ID, GetRead: true, OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, left, 4)
	eligible := 0
	for _, item := range left {
		if item.Eligible() {
			eligible++
		}
	}
	assert.Equal(t, 1, eligible)
	assert.Equal(t, "Item 5", left[3].Title, "the newest eligible item is the one kept")
}

func TestTrimFeed_MissingFeed(t *testing.T) {
	r := newTestRepo(t)

	deleted, err := r.TrimFeed(context.Background(), 9999, 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
