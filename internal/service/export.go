package service

import (
	"context"
	"fmt"

	"github.com/pkordes/figure-timeline/internal/domain"
	"github.com/pkordes/figure-timeline/internal/repo"
)

// ExportService assembles a full flat export of all items and their timelines.
type ExportService struct {
	items repo.ItemRepo
}

// NewExportService constructs an ExportService backed by the provided repo.
func NewExportService(items repo.ItemRepo) *ExportService {
	return &ExportService{items: items}
}

// Export returns one ExportRow per timeline entry across all items, items
// oldest first and entries most recent first.
// Items with no entries contribute one row with empty entry fields.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, item := range items {
		stored, err := s.items.ListTimeline(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("service.ExportService.Export: item %d: %w", item.ID, err)
		}

		base := domain.ExportRow{
			ItemID:          item.ID,
			ItemName:        item.Name,
			ItemDescription: item.Description,
		}
		entries := sortedTimeline(stored)
		if len(entries) == 0 {
			rows = append(rows, base)
			continue
		}
		for _, e := range entries {
			row := base
			row.Start = e.Start
			row.What = e.What
			rows = append(rows, row)
		}
	}
	return rows, nil
}
