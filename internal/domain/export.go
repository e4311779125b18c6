package domain

// ExportRow is a single row in the full-data export.
// It is a flat, denormalized view: one row per timeline entry, with item
// fields repeated for every entry. Items with no entries yield one row with
// empty entry fields.
type ExportRow struct {
	ItemID          int64
	ItemName        string
	ItemDescription string

	// Entry fields, empty when the item has no timeline.
	Start string
	What  string
}
