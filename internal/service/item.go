// Package service contains the business logic for the Figure Timeline API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkordes/figure-timeline/internal/domain"
	"github.com/pkordes/figure-timeline/internal/repo"
	"github.com/pkordes/figure-timeline/internal/timeline"
)

// TimelineCache is the read cache ItemService keeps sorted timelines in.
// Cached values are scoped to a per-item generation that Invalidate bumps,
// so a value read from the repo before an invalidation can never be served
// after it. *cache.RedisTimelineCache satisfies it.
type TimelineCache interface {
	Generation(ctx context.Context, itemID int64) (int64, error)
	Get(ctx context.Context, itemID, gen int64) ([]domain.TimelineEntry, bool, error)
	Set(ctx context.Context, itemID, gen int64, entries []domain.TimelineEntry) error
	Invalidate(ctx context.Context, itemID int64) error
}

// SaveItemRequest is the input of ItemService.Save.
// Description is a pointer so that "absent" and "empty" can be told apart:
// absent is a validation error, empty is allowed.
type SaveItemRequest struct {
	ID          *int64
	Name        string
	Description *string
	AuthorID    int64
	Entries     []domain.EntryInput
}

// ItemService implements business logic for items and their timelines.
type ItemService struct {
	repo  repo.ItemRepo
	cache TimelineCache
	log   *slog.Logger
}

// NewItemService constructs an ItemService backed by the provided repo.
// cache may be nil, in which case every read goes to the repo.
// log may be nil, in which case slog.Default() is used.
func NewItemService(r repo.ItemRepo, cache TimelineCache, log *slog.Logger) *ItemService {
	if log == nil {
		log = slog.Default()
	}
	return &ItemService{repo: r, cache: cache, log: log}
}

// Save validates the request, normalizes every entry start, and hands the
// item and its timeline, most recent entry first, to the repo as one atomic
// save. An empty start is stamped with the current UTC time.
// Returns a *domain.ValidationError (matching domain.ErrValidation) listing
// every failing field; nothing is persisted in that case.
func (s *ItemService) Save(ctx context.Context, req SaveItemRequest) (domain.Item, error) {
	if err := validateItem(req.Name, req.Description); err != nil {
		return domain.Item{}, err
	}

	now := time.Now()
	entries := make([]domain.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = domain.EntryInput{Start: timeline.NormalizeAt(e.Start, now), What: e.What}
	}
	entries = timeline.SortInputs(entries)

	item, err := s.repo.SaveWithTimeline(ctx, domain.SaveItemInput{
		ID:          req.ID,
		Name:        req.Name,
		Description: *req.Description,
		AuthorID:    req.AuthorID,
		Entries:     entries,
	})
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.Save: %w", err)
	}

	s.invalidate(ctx, item.ID)
	s.log.DebugContext(ctx, "item saved",
		"item_id", item.ID,
		"entries", len(entries),
		"timeline_replaced", len(entries) > 0,
	)
	return item, nil
}

// Create validates and persists a new item without a timeline.
func (s *ItemService) Create(ctx context.Context, name string, description *string, authorID int64) (domain.Item, error) {
	if err := validateItem(name, description); err != nil {
		return domain.Item{}, err
	}
	item, err := s.repo.Create(ctx, domain.Item{Name: name, Description: *description, AuthorID: authorID})
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.ItemService.Create: %w", err)
	}
	return item, nil
}

// Get returns an item with its timeline normalized and sorted most recent first.
// Returns domain.ErrNotFound if the item does not exist.
func (s *ItemService) Get(ctx context.Context, id int64) (domain.ItemWithTimeline, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.ItemWithTimeline{}, fmt.Errorf("service.ItemService.Get: %w", err)
	}

	entries, err := s.timeline(ctx, id)
	if err != nil {
		return domain.ItemWithTimeline{}, fmt.Errorf("service.ItemService.Get: %w", err)
	}
	return domain.ItemWithTimeline{Item: item, Timeline: entries}, nil
}

// ListPaged returns one page of items and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *ItemService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Item, int64, error) {
	items, total, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ItemService.ListPaged: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, total, nil
}

// Delete removes an item and its timeline.
// Returns domain.ErrNotFound if the item does not exist.
func (s *ItemService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.ItemService.Delete: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// timeline reads through the cache. The generation is read before the repo so
// that a save committing in between leaves the loaded rows under a generation
// nobody asks for again. Cache failures are logged and treated as misses;
// they never fail the read.
func (s *ItemService) timeline(ctx context.Context, itemID int64) ([]domain.TimelineEntry, error) {
	if s.cache == nil {
		return s.loadTimeline(ctx, itemID)
	}

	gen, err := s.cache.Generation(ctx, itemID)
	if err != nil {
		s.log.WarnContext(ctx, "timeline cache generation read failed", "item_id", itemID, "error", err)
		return s.loadTimeline(ctx, itemID)
	}

	entries, ok, err := s.cache.Get(ctx, itemID, gen)
	if err != nil {
		s.log.WarnContext(ctx, "timeline cache read failed", "item_id", itemID, "error", err)
	} else if ok {
		return entries, nil
	}

	entries, err = s.loadTimeline(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, itemID, gen, entries); err != nil {
		s.log.WarnContext(ctx, "timeline cache write failed", "item_id", itemID, "error", err)
	}
	return entries, nil
}

func (s *ItemService) loadTimeline(ctx context.Context, itemID int64) ([]domain.TimelineEntry, error) {
	stored, err := s.repo.ListTimeline(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return sortedTimeline(stored), nil
}

func (s *ItemService) invalidate(ctx context.Context, itemID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, itemID); err != nil {
		s.log.WarnContext(ctx, "timeline cache invalidate failed", "item_id", itemID, "error", err)
	}
}

// sortedTimeline normalizes stored starts (rows written before normalization
// was enforced may hold raw input) and orders the result most recent first.
// Always returns a non-nil slice.
func sortedTimeline(stored []domain.TimelineEntry) []domain.TimelineEntry {
	entries := make([]domain.TimelineEntry, len(stored))
	for i, e := range stored {
		e.Start = timeline.Normalize(e.Start)
		entries[i] = e
	}
	return timeline.Sort(entries)
}

// validateItem enforces the rules shared by Save and Create, collecting
// every failure instead of stopping at the first.
//   - Name must be non-empty (whitespace-only names are rejected).
//   - Description must be present; an empty string is fine.
func validateItem(name string, description *string) error {
	verr := domain.NewValidationError()
	if strings.TrimSpace(name) == "" {
		verr.Add("name", "name is required")
	}
	if description == nil {
		verr.Add("description", "description is required")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}
