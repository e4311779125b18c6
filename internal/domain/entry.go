package domain

// TimelineEntry is a single dated event owned by an Item.
// Start is in canonical form (see timeline.Normalize) and is the only sort key.
type TimelineEntry struct {
	ID     int64  `json:"id"`
	ItemID int64  `json:"item_id"`
	Start  string `json:"start"`
	What   string `json:"what"`
}

// EntryInput is a timeline entry as submitted for a save. It has no ID:
// storage assigns fresh ids on every replace.
type EntryInput struct {
	Start string `json:"start"`
	What  string `json:"what"`
}
