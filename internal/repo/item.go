// Package repo contains all database access logic for the Figure Timeline API.
// ItemRepo is the single persistence contract; item.go holds the Postgres
// implementation and sqlite.go the embedded SQLite one.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/figure-timeline/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup. Begin on a pgx.Tx opens a
// savepoint, so SaveWithTimeline keeps its atomicity under a test transaction.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, rows pgx.CopyFromSource) (int64, error)
}

// ItemRepo defines the persistence operations for Items and their timelines.
// The service layer depends on this interface, not a concrete backend,
// which allows the service to be unit-tested with a mock.
type ItemRepo interface {
	// Create inserts a new item and returns the persisted record (with
	// storage-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, item domain.Item) (domain.Item, error)

	// GetByID retrieves a single item by id.
	// Returns domain.ErrNotFound if no item with that id exists.
	GetByID(ctx context.Context, id int64) (domain.Item, error)

	// List returns every item ordered by created_at, oldest first.
	List(ctx context.Context) ([]domain.Item, error)

	// ListPaged returns one page of items in List order and the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Item, int64, error)

	// Delete removes an item and, by cascade, its timeline.
	// Returns domain.ErrNotFound if no item with that id exists.
	Delete(ctx context.Context, id int64) error

	// ListTimeline returns the entries of an item ordered by start ascending.
	ListTimeline(ctx context.Context, itemID int64) ([]domain.TimelineEntry, error)

	// SaveWithTimeline upserts the item and, when in.Entries is non-empty,
	// replaces its whole timeline, all in one transaction. An empty
	// in.Entries leaves the stored timeline untouched.
	SaveWithTimeline(ctx context.Context, in domain.SaveItemInput) (domain.Item, error)
}

const itemColumns = `id, name, description, author_id, created_at, updated_at`

// pgItemRepo is the Postgres implementation of ItemRepo.
type pgItemRepo struct {
	db db
}

// NewItemRepo constructs an ItemRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewItemRepo(db db) ItemRepo {
	return &pgItemRepo{db: db}
}

// Create inserts a new item row and returns the full persisted record.
func (r *pgItemRepo) Create(ctx context.Context, item domain.Item) (domain.Item, error) {
	result, err := insertItem(ctx, r.db, item.Name, item.Description, item.AuthorID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves an item by primary key.
func (r *pgItemRepo) GetByID(ctx context.Context, id int64) (domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = @id`

	result, err := scanItem(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.GetByID: %w", err)
	}
	return result, nil
}

// List returns all items, oldest first.
func (r *pgItemRepo) List(ctx context.Context) ([]domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, fmt.Errorf("repo.ItemRepo.List: %w", err)
	}
	return items, nil
}

// ListPaged returns one page of items and the total number of items.
func (r *pgItemRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Item, int64, error) {
	const countQ = `SELECT count(*) FROM items`
	const q = `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY created_at, id
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ItemRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItemRepo.ListPaged: %w", err)
	}
	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ItemRepo.ListPaged: %w", err)
	}
	return items, total, nil
}

// Delete removes an item by primary key. Timeline rows go with it via
// ON DELETE CASCADE.
func (r *pgItemRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM items WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ItemRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// ListTimeline returns an item's entries ordered by start, then id.
// Always returns a non-nil slice.
func (r *pgItemRepo) ListTimeline(ctx context.Context, itemID int64) ([]domain.TimelineEntry, error) {
	const q = `
		SELECT id, item_id, start, what
		FROM timeline_entries
		WHERE item_id = @item_id
		ORDER BY start, id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"item_id": itemID})
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

// SaveWithTimeline runs upsert, delete and insert in one transaction.
// Readers under READ COMMITTED keep seeing the old timeline until Commit,
// so an item never appears with an empty intermediate timeline.
func (r *pgItemRepo) SaveWithTimeline(ctx context.Context, in domain.SaveItemInput) (domain.Item, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: begin: %w", err)
	}
	// Rollback after a successful Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	item, err := upsertItem(ctx, tx, in)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: %w", err)
	}

	if len(in.Entries) > 0 {
		if err := replaceTimeline(ctx, tx, item.ID, in.Entries); err != nil {
			return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Item{}, fmt.Errorf("repo.ItemRepo.SaveWithTimeline: commit: %w", err)
	}
	return item, nil
}

// upsertItem updates the item named by in.ID, or inserts a new one when
// in.ID is nil or names no existing row. A new row always gets a
// storage-assigned id.
func upsertItem(ctx context.Context, q db, in domain.SaveItemInput) (domain.Item, error) {
	if in.ID != nil {
		const update = `
			UPDATE items
			SET name        = @name,
			    description = @description,
			    updated_at  = now()
			WHERE id = @id
			RETURNING ` + itemColumns

		item, err := scanItem(q.QueryRow(ctx, update, pgx.NamedArgs{
			"id":          *in.ID,
			"name":        in.Name,
			"description": in.Description,
		}))
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Item{}, fmt.Errorf("update item: %w", err)
		}
	}

	item, err := insertItem(ctx, q, in.Name, in.Description, in.AuthorID)
	if err != nil {
		return domain.Item{}, fmt.Errorf("insert item: %w", err)
	}
	return item, nil
}

func insertItem(ctx context.Context, q db, name, description string, authorID int64) (domain.Item, error) {
	const insert = `
		INSERT INTO items (name, description, author_id)
		VALUES (@name, @description, @author_id)
		RETURNING ` + itemColumns

	return scanItem(q.QueryRow(ctx, insert, pgx.NamedArgs{
		"name":        name,
		"description": description,
		"author_id":   authorID,
	}))
}

// replaceTimeline deletes every entry of itemID and bulk-loads entries with COPY.
func replaceTimeline(ctx context.Context, q db, itemID int64, entries []domain.EntryInput) error {
	const del = `DELETE FROM timeline_entries WHERE item_id = @item_id`

	if _, err := q.Exec(ctx, del, pgx.NamedArgs{"item_id": itemID}); err != nil {
		return fmt.Errorf("delete timeline: %w", err)
	}

	n, err := q.CopyFrom(ctx,
		pgx.Identifier{"timeline_entries"},
		[]string{"item_id", "start", "what"},
		pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
			return []any{itemID, entries[i].Start, entries[i].What}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert timeline: %w", err)
	}
	if n != int64(len(entries)) {
		return fmt.Errorf("insert timeline: copied %d of %d rows", n, len(entries))
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanItem to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem maps a single database row into a domain.Item.
func scanItem(s scanner) (domain.Item, error) {
	var it domain.Item
	err := s.Scan(&it.ID, &it.Name, &it.Description, &it.AuthorID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, err
	}
	return it, nil
}

func collectItems(rows pgx.Rows) ([]domain.Item, error) {
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
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
