package timeline

import (
	"cmp"
	"slices"

	"github.com/pkordes/figure-timeline/internal/domain"
)

// Sort returns a copy of entries ordered by Start, most recent first.
// Entries with equal Start keep their input order. The input is not modified.
func Sort(entries []domain.TimelineEntry) []domain.TimelineEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b domain.TimelineEntry) int {
		return cmp.Compare(b.Start, a.Start)
	})
	return out
}

// SortInputs is Sort for entries that have not been persisted yet.
func SortInputs(entries []domain.EntryInput) []domain.EntryInput {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b domain.EntryInput) int {
		return cmp.Compare(b.Start, a.Start)
	})
	return out
}
