package timeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pkordes/figure-timeline/internal/domain"
)

// DraftID identifies an entry while a timeline is being edited. It is local
// to the editing client: it never reaches the repo layer, and storage ids are
// never derived from it. Validation failures name the draft they belong to.
type DraftID uuid.UUID

// NewDraftID returns a random DraftID.
func NewDraftID() DraftID {
	return DraftID(uuid.New())
}

// String returns the canonical UUID text of id.
func (id DraftID) String() string {
	return uuid.UUID(id).String()
}

// UnmarshalJSON accepts any JSON value. Ids that are not UUID strings
// decode to the zero DraftID; client ids are never trusted.
func (id *DraftID) UnmarshalJSON(b []byte) error {
	*id = DraftID{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	if u, err := uuid.Parse(s); err == nil {
		*id = DraftID(u)
	}
	return nil
}

// Draft is a timeline entry as submitted by the editor.
type Draft struct {
	ID    DraftID `json:"id"`
	Start string  `json:"start"`
	What  string  `json:"what"`
}

// Drafts is a submitted timeline whose entries each carry a distinct DraftID.
// It is not safe for concurrent use.
type Drafts struct {
	list []Draft
}

// NewDrafts returns a list holding ds in order. Drafts without an ID, or
// repeating the ID of an earlier draft, are given a fresh one.
func NewDrafts(ds ...Draft) *Drafts {
	d := &Drafts{list: make([]Draft, 0, len(ds))}
	seen := make(map[DraftID]struct{}, len(ds))
	for _, draft := range ds {
		if _, dup := seen[draft.ID]; dup || draft.ID == (DraftID{}) {
			draft.ID = NewDraftID()
		}
		seen[draft.ID] = struct{}{}
		d.list = append(d.list, draft)
	}
	return d
}

// Validate reports every draft whose start the date grammar does not
// recognize, keyed "timeline.<draft id>.start". Empty starts are accepted;
// they stand for the time of the save. Returns nil when every start is usable.
func (d *Drafts) Validate() error {
	verr := domain.NewValidationError()
	for _, draft := range d.list {
		if strings.TrimSpace(draft.Start) == "" || IsCanonical(Normalize(draft.Start)) {
			continue
		}
		verr.Add("timeline."+draft.ID.String()+".start", fmt.Sprintf("unrecognized date %q", draft.Start))
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// Entries returns the list as save input, in order, with draft ids dropped.
func (d *Drafts) Entries() []domain.EntryInput {
	out := make([]domain.EntryInput, len(d.list))
	for i, draft := range d.list {
		out[i] = domain.EntryInput{Start: draft.Start, What: draft.What}
	}
	return out
}
