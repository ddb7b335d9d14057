package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/jdholdren/newsroom/internal/database"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/retention"
	"github.com/jdholdren/newsroom/internal/sqlstore"
)

type mockSyncer struct {
	mock.Mock
}

func (m *mockSyncer) SyncFeed(ctx context.Context, feedID int64) (int, error) {
	args := m.Called(ctx, feedID)
	return args.Int(0), args.Error(1)
}

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) Sweep(ctx context.Context, threshold int) (retention.Report, error) {
	args := m.Called(ctx, threshold)
	return args.Get(0).(retention.Report), args.Error(1)
}

func newTestActivities(t *testing.T) (activities, sqlstore.Repo, *mockSyncer) {
	t.Helper()

	dbx, err := database.Open(context.Background(), database.DialectSQLite, filepath.Join(t.TempDir(), "news.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })
	require.NoError(t, database.RunMigrations(dbx, database.DialectSQLite))

	var (
		repo   = sqlstore.New(dbx, database.DialectSQLite)
		syncer = &mockSyncer{}
	)
	return activities{
		feeds:     repo,
		syncer:    syncer,
		retention: retention.NewManager(repo),
	}, repo, syncer
}

func newActivityEnv(a activities) *testsuite.TestActivityEnvironment {
	var s testsuite.WorkflowTestSuite
	env := s.NewTestActivityEnvironment()
	env.RegisterActivity(&a)

	return env
}

func TestAllFeedsActivity(t *testing.T) {
	a, repo, _ := newTestActivities(t)
	ctx := context.Background()

	var want []int64
	for i := 0; i < 3; i++ {
		feed, err := repo.InsertFeed(ctx, news.Feed{UserID: fmt.Sprintf("user-%d", i), URL: "https://example.com/feed.xml"})
		require.NoError(t, err)
		want = append(want, feed.ID)
	}

	val, err := newActivityEnv(a).ExecuteActivity(a.AllFeeds)
	require.NoError(t, err)
	var got []int64
	require.NoError(t, val.Get(&got))
	assert.Equal(t, want, got)
}

func TestSyncFeedActivity_GoneFeedIsFinal(t *testing.T) {
	a, _, syncer := newTestActivities(t)
	syncer.On("SyncFeed", mock.Anything, int64(42)).Return(0, fmt.Errorf("error fetching feed: %w", news.ErrNotFound))

	_, err := newActivityEnv(a).ExecuteActivity(a.SyncFeed, int64(42))
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, errTypeNotFound, appErr.Type())
}

func TestSweepRetentionActivity(t *testing.T) {
	a, repo, _ := newTestActivities(t)
	ctx := context.Background()

	// Five per update, eight read and two starred: three have to go.
	feed, err := repo.InsertFeed(ctx, news.Feed{UserID: "ada", URL: "https://example.com/feed.xml", ArticlesPerUpdate: 5})
	require.NoError(t, err)
	var items []news.Item
	for i := 0; i < 10; i++ {
		status := news.StatusFlag(0)
		if i >= 8 {
			status = news.StatusStarred
		}
		items = append(items, news.Item{FeedID: feed.ID, GUID: fmt.Sprintf("guid-%d", i), Status: status})
	}
	_, err = repo.InsertItems(ctx, items)
	require.NoError(t, err)

	val, err := newActivityEnv(a).ExecuteActivity(a.SweepRetention, 0)
	require.NoError(t, err)
	var res SweepResult
	require.NoError(t, val.Get(&res))
	assert.Equal(t, 3, res.Deleted)
	assert.Equal(t, 1, res.Feeds)
	assert.NotEmpty(t, res.RunID)
}

func TestSweepRetentionActivity_NegativeThreshold(t *testing.T) {
	a, _, _ := newTestActivities(t)

	_, err := newActivityEnv(a).ExecuteActivity(a.SweepRetention, -1)
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, errTypeInvalidConfig, appErr.Type())
}

func TestSweepRetentionActivity_StoppedAtDeadline(t *testing.T) {
	sweeper := &mockSweeper{}
	sweeper.On("Sweep", mock.Anything, 0).Return(
		retention.Report{RunID: "run", Deleted: 4, Feeds: 2},
		fmt.Errorf("retention sweep interrupted after 4 items: %w", context.DeadlineExceeded),
	)
	a := activities{retention: sweeper}

	val, err := newActivityEnv(a).ExecuteActivity(a.SweepRetention, 0)
	require.NoError(t, err)
	var res SweepResult
	require.NoError(t, val.Get(&res))
	assert.Equal(t, SweepResult{RunID: "run", Deleted: 4, Feeds: 2, Partial: true}, res)
	sweeper.AssertExpectations(t)
}
