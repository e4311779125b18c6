// Package domain contains the core data types for the Figure Timeline application.
// This package has zero external dependencies and is imported by every other
// internal package (repo, service, handler).
package domain

import "time"

// Item is a historical figure or subject. It is the top-level aggregate;
// timeline entries belong to exactly one item and are deleted with it.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AuthorID    int64     `json:"author_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemWithTimeline is an item together with its timeline, most recent entry first.
type ItemWithTimeline struct {
	Item
	Timeline []TimelineEntry `json:"timeline"`
}

// SaveItemInput carries everything the repo needs for a save-with-timeline.
//
// ID nil means "create". Entries are persisted as a whole: a non-empty slice
// replaces the stored timeline, an empty slice leaves it untouched.
type SaveItemInput struct {
	ID          *int64
	Name        string
	Description string
	AuthorID    int64
	Entries     []EntryInput
}
