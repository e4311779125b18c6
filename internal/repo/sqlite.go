package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers "sqlite" driver for database/sql

	"github.com/pkordes/figure-timeline/internal/domain"
)

// sqliteTimeLayout matches the strftime('%Y-%m-%dT%H:%M:%fZ') defaults in
// the SQLite migrations.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

const sqliteNow = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// OpenSQLite opens the SQLite database file at path with foreign keys
// enforced (needed for the timeline cascade) and WAL journaling, so readers
// keep seeing the last committed timeline while a save is in flight.
// A leading "file:" or "sqlite://" on path is accepted and ignored.
func OpenSQLite(path string) (*sql.DB, error) {
	path = strings.TrimPrefix(path, "sqlite://")
	path = strings.TrimPrefix(path, "file:")
	if path == "" {
		return nil, fmt.Errorf("repo.OpenSQLite: path is required")
	}

	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: open: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: ping: %w", err)
	}
	return db, nil
}

// sqlDB is the subset of *sql.DB and *sql.Tx the SQLite queries need.
type sqlDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqliteItemRepo is the SQLite implementation of ItemRepo.
type sqliteItemRepo struct {
	db *sql.DB
}

// NewSQLiteItemRepo constructs an ItemRepo backed by a database opened with
// OpenSQLite and migrated with migrations.SQLite.
func NewSQLiteItemRepo(db *sql.DB) ItemRepo {
	return &sqliteItemRepo{db: db}
}

// Create inserts a new item row and returns the full persisted record.
func (r *sqliteItemRepo) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	result, err := sqliteInsertItem(ctx, r.db, item.Name, item.Description, item.AuthorID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an item by primary key.
// Returns domain.ErrNotFound if no row matches.
func (r *sqliteItemRepo) GetByID(ctx context.Context, id int64) (domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = ?`

	result, err := scanSQLiteItem(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns every item, oldest first.
func (r *sqliteItemRepo) List(ctx context.Context) ([]domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: %w", err)
	}
	items, err := collectSQLiteItems(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: %w", err)
	}
	return items, nil
}

// ListPaged returns one page of items, oldest first, and the total row count.
func (r *sqliteItemRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Item, int64, error) {
	const countQ = `SELECT count(*) FROM items`
	const q = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id LIMIT ? OFFSET ?`

	var total int64
	if err := r.db.QueryRowContext(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ItemRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, q, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItemRepo.ListPaged: %w", err)
	}
	items, err := collectSQLiteItems(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItemRepo.ListPaged: %w", err)
	}
	return items, total, nil
}

// Delete removes an item; its timeline goes with it through ON DELETE CASCADE.
// Returns domain.ErrNotFound if no row was deleted.
func (r *sqliteItemRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// ListTimeline returns the stored entries of itemID ordered by start.
// An item without entries yields an empty, non-nil slice.
func (r *sqliteItemRepo) ListTimeline(ctx context.Context, itemID int64) ([]domain.TimelineEntry, error) {
	const q = `
		SELECT id, item_id, start, what
		FROM timeline_entries
		WHERE item_id = ?
		ORDER BY start, id`

	rows, err := r.db.QueryContext(ctx, q, itemID)
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.ListTimeline: %w", err)
	}
	defer rows.Close()

	entries := []domain.TimelineEntry{}
	for rows.Next() {
		var e domain.TimelineEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.Start, &e.What); err != nil {
			return nil, fmt.Errorf("repo.ItemRepo.ListTimeline: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.ListTimeline: rows: %w", err)
	}
	return entries, nil
}

// SaveWithTimeline upserts the item and, when in.Entries is non-empty,
// replaces its whole timeline, all in one transaction. Readers on other
// connections see the previous state until the commit.
func (r *sqliteItemRepo) SaveWithTimeline(ctx context.Context, in domain.SaveItemInput) (domain.Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := sqliteUpsertItem(ctx, tx, in)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: %w", err)
	}

	if len(in.Entries) > 0 {
		if err := sqliteReplaceTimeline(ctx, tx, item.ID, in.Entries); err != nil {
			return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: commit: %w", err)
	}
	return item, nil
}

func sqliteUpsertItem(ctx context.Context, q sqlDB, in domain.SaveItemInput) (domain.Item, error) {
	if in.ID != nil {
		const update = `
			UPDATE items
			SET name = ?, description = ?, updated_at = ` + sqliteNow + `
			WHERE id = ?
			RETURNING ` + itemColumns

		item, err := scanSQLiteItem(q.QueryRowContext(ctx, update, in.Name, in.Description, *in.ID))
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Item{}, fmt.Errorf("update item: %w", err)
		}
	}

	item, err := sqliteInsertItem(ctx, q, in.Name, in.Description, in.AuthorID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

func sqliteInsertItem(ctx context.Context, q sqlDB, name, description string, authorID int64) (domain.Item, error) {
	const insert = `
		INSERT INTO items (name, description, author_id)
		VALUES (?, ?, ?)
		RETURNING ` + itemColumns

	return scanSQLiteItem(q.QueryRowContext(ctx, insert, name, description, authorID))
}

func sqliteReplaceTimeline(ctx context.Context, tx *sql.Tx, itemID int64, entries []domain.EntryInput) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline_entries WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO timeline_entries (item_id, start, what) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("insert timeline: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, itemID, e.Start, e.What); err != nil {
			return fmt.Errorf("insert timeline: %w", err)
		}
	}
	return nil
}

// scanSQLiteItem is scanItem for database/sql rows, parsing the TEXT timestamps.
func scanSQLiteItem(s scanner) (domain.Item, error) {
	var (
		it               domain.Item
		created, updated string
	)
	err := s.Scan(&it.ID, &it.Name, &it.Description, &it.AuthorID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, err
	}

	if it.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
		return domain.Item{}, fmt.Errorf("parse created_at: %w", err)
	}
	if it.UpdatedAt, err = time.Parse(sqliteTimeLayout, updated); err != nil {
		return domain.Item{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return it, nil
}

func collectSQLiteItems(rows *sql.Rows) ([]domain.Item, error) {
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanSQLiteItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}
