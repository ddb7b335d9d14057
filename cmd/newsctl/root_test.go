package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdholdren/newsroom/internal/database"
	"github.com/jdholdren/newsroom/internal/news"
	"github.com/jdholdren/newsroom/internal/sqlstore"
)

// newsctl runs the command line against dbPath and returns what it printed.
func newsctl(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--database", dbPath}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func migratedDB(t *testing.T) (string, sqlstore.Repo) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "news.db")
	out, err := newsctl(t, dbPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated sqlite database.")

	dbx, err := database.Open(context.Background(), database.DialectSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { dbx.Close() })

	return dbPath, sqlstore.New(dbx, database.DialectSQLite)
}

func TestSweep(t *testing.T) {
	dbPath, repo := migratedDB(t)
	ctx := context.Background()

	// Five per update, eight read and two starred
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

	out, err := newsctl(t, dbPath, "sweep", "--threshold", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to delete.")

	out, err = newsctl(t, dbPath, "sweep", "--threshold", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 3 items from 1 feed.")

	out, err = newsctl(t, dbPath, "sweep")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to delete.")

	_, err = newsctl(t, dbPath, "sweep", "--threshold", "-1")
	assert.ErrorIs(t, err, news.ErrInvalidConfig)
}

func TestOPMLRoundTrip(t *testing.T) {
	dbPath, _ := migratedDB(t)

	opmlPath := filepath.Join(t.TempDir(), "subs.opml")
	require.NoError(t, os.WriteFile(opmlPath, []byte(`<?xml version="1.0"?>
<opml version="2.0"><body>
  <outline text="Tech">
    <outline text="Go" type="rss" xmlUrl="https://go.dev/blog/feed.atom"/>
  </outline>
</body></opml>`), 0o600))

	out, err := newsctl(t, dbPath, "import-opml", "--user", "ada", opmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 feed and 1 folder, skipped 0 already subscribed.")

	out, err = newsctl(t, dbPath, "import-opml", "--user", "ada", opmlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 feeds and 0 folders, skipped 1 already subscribed.")

	out, err = newsctl(t, dbPath, "export-opml", "--user", "ada")
	require.NoError(t, err)
	assert.Contains(t, out, `xmlUrl="https://go.dev/blog/feed.atom"`)

	_, err = newsctl(t, dbPath, "import-opml", opmlPath)
	assert.Error(t, err, "--user is required")
}

func TestNoDatabase(t *testing.T) {
	t.Setenv("DATABASE", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.ErrorIs(t, cmd.ExecuteContext(context.Background()), news.ErrInvalidConfig)
}

func TestBadDeadline(t *testing.T) {
	t.Setenv("RETENTION_DEADLINE", "0s")

	_, err := newsctl(t, filepath.Join(t.TempDir(), "news.db"), "migrate")
	assert.ErrorIs(t, err, news.ErrInvalidConfig)
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 item", plural(1, "item"))
	assert.Equal(t, "0 items", plural(0, "item"))
	assert.Equal(t, "3 feeds", plural(3, "feed"))
}
