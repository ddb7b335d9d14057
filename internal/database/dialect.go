package database

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jdholdren/newsroom/internal/news"
)

// Dialect selects the relational backend. The SQL that differs between backends is keyed
// off of this value rather than off of separate store implementations.
type Dialect int

const (
	DialectSQLite Dialect = iota + 1
	DialectPostgres
)

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	}

	return 0, fmt.Errorf("unknown database dialect %q: %w", s, news.ErrInvalidConfig)
}

// UnmarshalText lets the dialect be read straight out of the environment.
func (d *Dialect) UnmarshalText(text []byte) error {
	parsed, err := ParseDialect(string(text))
	if err != nil {
		return err
	}
	*d = parsed

	return nil
}

func (d Dialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectPostgres:
		return "postgres"
	}

	return fmt.Sprintf("Dialect(%d)", int(d))
}

// DriverName is the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	return d.String()
}

// Placeholder is the bind style squirrel should render for the dialect.
func (d Dialect) Placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}

	return sq.Question
}

// Builder returns a statement builder bound to the dialect's placeholders.
func (d Dialect) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder())
}

// sqlitePragmas keeps foreign keys enforced and lets readers work alongside the single writer.
const sqlitePragmas = "_txlock=immediate&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// DSN decorates a connection string with the options the dialect needs.
func (d Dialect) DSN(dsn string) string {
	if d != DialectSQLite {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}

	return dsn + "?" + sqlitePragmas
}
