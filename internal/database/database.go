// Package database opens and migrates the relational store backing the reader.
package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

// Open connects to the database, retrying the first ping until it's reachable.
func Open(ctx context.Context, dialect Dialect, dsn string) (*sqlx.DB, error) {
	dbx, err := sqlx.Open(dialect.DriverName(), dialect.DSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	b := retry.WithMaxRetries(6, retry.NewFibonacci(500*time.Millisecond))
	if err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := dbx.PingContext(ctx); err != nil {
			slog.WarnContext(ctx, "database not ready", "dialect", dialect, "error", err)
			return retry.RetryableError(err)
		}

		return nil
	}); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	return dbx, nil
}
