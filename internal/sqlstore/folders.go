package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/newsroom/internal/news"
)

func (r Repo) Folders(ctx context.Context, userID string) ([]news.Folder, error) {
	const q = `SELECT * FROM news_folders WHERE user_id = ? ORDER BY name;`

	var folders []news.Folder
	if err := r.db.SelectContext(ctx, &folders, r.db.Rebind(q), userID); err != nil {
		return nil, fmt.Errorf("error selecting folders: %w", err)
	}

	return folders, nil
}

func (r Repo) Folder(ctx context.Context, userID string, id int64) (news.Folder, error) {
	const q = `SELECT * FROM news_folders WHERE id = ? AND user_id = ?;`

	var folder news.Folder
	if err := r.db.GetContext(ctx, &folder, r.db.Rebind(q), id, userID); err != nil {
		return news.Folder{}, fmt.Errorf("error fetching folder: %w", classify(err))
	}

	return folder, nil
}

func (r Repo) FolderByName(ctx context.Context, userID, name string) (news.Folder, error) {
	const q = `SELECT * FROM news_folders WHERE user_id = ? AND name = ?;`

	var folder news.Folder
	if err := r.db.GetContext(ctx, &folder, r.db.Rebind(q), userID, name); err != nil {
		return news.Folder{}, fmt.Errorf("error fetching folder: %w", classify(err))
	}

	return folder, nil
}

func (r Repo) InsertFolder(ctx context.Context, folder news.Folder) (news.Folder, error) {
	folder.CreatedAt = time.Now().Unix()

	id, err := r.insertReturningID(ctx, r.db, r.sb.Insert("news_folders").
		Columns("user_id", "name", "created_at").
		Values(folder.UserID, folder.Name, folder.CreatedAt),
	)
	if err != nil {
		return news.Folder{}, fmt.Errorf("error inserting folder: %w", classify(err))
	}
	folder.ID = id

	return folder, nil
}

func (r Repo) RenameFolder(ctx context.Context, userID string, id int64, name string) error {
	const q = `UPDATE news_folders SET name = ? WHERE id = ? AND user_id = ?;`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(q), name, id, userID)
	if err != nil {
		return fmt.Errorf("error renaming folder: %w", classify(err))
	}

	return affectedOne(res)
}

// DeleteFolder removes the folder along with every feed filed in it and their items.
func (r Repo) DeleteFolder(ctx context.Context, userID string, id int64) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		const (
			delItems = `DELETE FROM news_items WHERE feed_id IN (
				SELECT id FROM news_feeds WHERE folder_id = ? AND user_id = ?
			);`
			delFeeds  = `DELETE FROM news_feeds WHERE folder_id = ? AND user_id = ?;`
			delFolder = `DELETE FROM news_folders WHERE id = ? AND user_id = ?;`
		)

		for _, q := range []string{delItems, delFeeds} {
			if _, err := tx.ExecContext(ctx, tx.Rebind(q), id, userID); err != nil {
				return fmt.Errorf("error deleting folder contents: %w", classify(err))
			}
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(delFolder), id, userID)
		if err != nil {
			return fmt.Errorf("error deleting folder: %w", classify(err))
		}

		return affectedOne(res)
	})
}
