package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/jdholdren/newsroom/internal/migrations"
)

// RunMigrations performs all embedded migrations for the dialect.
func RunMigrations(dbx *sqlx.DB, dialect Dialect) error {
	d, err := iofs.New(migrations.FS, dialect.String())
	if err != nil {
		return fmt.Errorf("error creating migrations source: %s", err)
	}

	var driver migratedb.Driver
	switch dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(dbx.DB, &postgres.Config{})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(dbx.DB, &sqlite.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %s", dialect)
	}
	if err != nil {
		return fmt.Errorf("error creating %s instance for migration: %s", dialect, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", d, dialect.String(), driver)
	if err != nil {
		return fmt.Errorf("error creating migrator: %s", err)
	}
	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error migrating: %s", err)
	}
	slog.Info("migrated", "dialect", dialect)

	return nil
}
