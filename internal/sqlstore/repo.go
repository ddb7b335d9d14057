// Package sqlstore is the relational mapper for folders, feeds and items.
//
// A single [Repo] serves every supported backend; the [database.Dialect] it's constructed
// with decides placeholder style and how freshly inserted ids are read back.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/jdholdren/newsroom/internal/database"
	"github.com/jdholdren/newsroom/internal/news"
)

// Ensure Repo implements the Repository interface
var _ news.Repository = (*Repo)(nil)

type Repo struct {
	db      *sqlx.DB
	dialect database.Dialect
	sb      sq.StatementBuilderType
}

func New(db *sqlx.DB, dialect database.Dialect) Repo {
	return Repo{
		db:      db,
		dialect: dialect,
		sb:      dialect.Builder(),
	}
}

// insertReturningID runs the insert and returns the id of the new row.
func (r Repo) insertReturningID(ctx context.Context, ext sqlx.ExtContext, b sq.InsertBuilder) (int64, error) {
	if r.dialect == database.DialectPostgres {
		query, args, err := b.Suffix("RETURNING id").ToSql()
		if err != nil {
			return 0, fmt.Errorf("error constructing sql: %s", err)
		}

		var id int64
		if err := sqlx.GetContext(ctx, ext, &id, query, args...); err != nil {
			return 0, err
		}
		return id, nil
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("error constructing sql: %s", err)
	}
	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// withTx runs fn inside a transaction, committing only if fn succeeds.
func (r Repo) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", classify(err))
	}

	return nil
}

// Extended result codes from sqlite3.h.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// classify tags driver errors with the news error they represent. The driver error stays in
// the chain so its message isn't lost.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return news.ErrNotFound
	}

	if sqliteErr := (&sqlite.Error{}); errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return fmt.Errorf("%w: %w", news.ErrConflict, err)
		case sqliteConstraintForeignKey, sqliteConstraintNotNull, sqliteConstraintCheck:
			return fmt.Errorf("%w: %w", news.ErrConstraint, err)
		}
	}

	if pqErr := (&pq.Error{}); errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %w", news.ErrConflict, err)
		case "23503", "23502", "23514": // foreign_key, not_null, check
			return fmt.Errorf("%w: %w", news.ErrConstraint, err)
		}
	}

	return err
}

// ownedFeeds selects the ids of a user's feeds. It renders with '?' placeholders so it can
// be nested in a statement built for any dialect.
func ownedFeeds(userID string) sq.SelectBuilder {
	return sq.Select("id").From("news_feeds").Where(sq.Eq{"user_id": userID})
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return news.ErrNotFound
	}

	return nil
}
