// Package migrations embeds the SQL migration files so they can be used
// by the goose programmatic API in tests, the seed command, and server bootstrap.
//
// Each supported database has its own directory because the schemas differ
// in column types and default expressions.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedded embed.FS

// Postgres holds the Postgres migrations, rooted so goose sees the .sql files directly.
var Postgres = mustSub("postgres")

// SQLite holds the SQLite migrations.
var SQLite = mustSub("sqlite")

// Up applies every pending migration for dialect to db and returns the
// number of migrations applied.
func Up(ctx context.Context, dialect goose.Dialect, db *sql.DB) (int, error) {
	fsys, err := forDialect(dialect)
	if err != nil {
		return 0, err
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations.Up: %w", err)
	}
	return len(results), nil
}

func forDialect(dialect goose.Dialect) (fs.FS, error) {
	switch dialect {
	case goose.DialectPostgres:
		return Postgres, nil
	case goose.DialectSQLite3:
		return SQLite, nil
	default:
		return nil, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		panic("migrations: " + err.Error())
	}
	return sub
}
