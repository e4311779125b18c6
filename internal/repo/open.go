package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/figure-timeline/migrations"
)

// Backends accepted by Open.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Store is an opened backend: its ItemRepo and the means to release it.
type Store struct {
	Items ItemRepo
	close func()
}

// Close releases the connection pool or database file.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the backend at url, verifies it is reachable, and, when
// migrate is true, applies pending migrations before returning.
func Open(ctx context.Context, backend, url string, migrate bool) (*Store, error) {
	switch backend {
	case BackendPostgres:
		return openPostgres(ctx, url, migrate)
	case BackendSQLite:
		return openSQLite(ctx, url, migrate)
	default:
		return nil, fmt.Errorf("repo.Open: unsupported backend %q", backend)
	}
}

func openPostgres(ctx context.Context, url string, migrate bool) (*Store, error) {
	// New() does not open connections immediately; the Ping does.
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("repo.Open: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("repo.Open: ping: %w", err)
	}

	if migrate {
		// goose needs database/sql; borrow connections from the pool.
		db := stdlib.OpenDBFromPool(pool)
		_, err := migrations.Up(ctx, goose.DialectPostgres, db)
		_ = db.Close()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("repo.Open: %w", err)
		}
	}

	return &Store{Items: NewItemRepo(pool), close: pool.Close}, nil
}

func openSQLite(ctx context.Context, url string, migrate bool) (*Store, error) {
	db, err := OpenSQLite(url)
	if err != nil {
		return nil, err
	}
	if migrate {
		if _, err := migrations.Up(ctx, goose.DialectSQLite3, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("repo.Open: %w", err)
		}
	}
	return &Store{Items: NewSQLiteItemRepo(db), close: closer(db)}, nil
}

func closer(db *sql.DB) func() {
	return func() { _ = db.Close() }
}
