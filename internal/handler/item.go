package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/figure-timeline/internal/domain"
	"github.com/pkordes/figure-timeline/internal/service"
	"github.com/pkordes/figure-timeline/internal/timeline"
)

// saveItemBody is the request body of POST /items and PUT /items/{id}.
// Timeline entries may carry the draft id the editor used for them. Strict
// date errors are keyed by it; it never reaches storage.
type saveItemBody struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Timeline    []timeline.Draft `json:"timeline"`
}

// entries converts the submitted drafts into save input, in submission order.
// In strict mode it answers 422 when any start is unrecognized.
func (s *Server) entries(w http.ResponseWriter, r *http.Request, body saveItemBody) ([]domain.EntryInput, bool) {
	drafts := timeline.NewDrafts(body.Timeline...)
	if s.strictDates {
		if err := drafts.Validate(); err != nil {
			s.writeServiceError(w, r, err, "")
			return nil, false
		}
	}
	return drafts.Entries(), true
}

type pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type itemListResponse struct {
	Data       []domain.Item `json:"data"`
	Pagination pagination    `json:"pagination"`
}

// ListItems handles GET /items.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		badRequest(w, "invalid page: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		badRequest(w, "invalid limit: "+err.Error())
		return
	}

	params := domain.NewPaginationParams(page, limit)
	items, total, err := s.items.ListPaged(r.Context(), params)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}

	writeJSON(w, http.StatusOK, itemListResponse{
		Data:       items,
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: total, Pages: params.Pages(total)},
	})
}

// CreateItem handles POST /items.
// A body with a "timeline" array saves the item and its timeline together;
// without one, a bare item is created.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var body saveItemBody
	if !decodeBody(w, r, &body) {
		return
	}

	var (
		item domain.Item
		err  error
	)
	if body.Timeline == nil {
		item, err = s.items.Create(r.Context(), body.Name, body.Description, s.authorID)
	} else {
		entries, ok := s.entries(w, r, body)
		if !ok {
			return
		}
		item, err = s.items.Save(r.Context(), service.SaveItemRequest{
			Name:        body.Name,
			Description: body.Description,
			AuthorID:    s.authorID,
			Entries:     entries,
		})
	}
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}

	w.Header().Set("Location", "/items/"+strconv.FormatInt(item.ID, 10))
	s.respondWithItem(w, r, http.StatusCreated, item.ID)
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	s.respondWithItem(w, r, http.StatusOK, id)
}

// UpdateItem handles PUT /items/{id}: the item's fields are updated and, when
// the body carries a non-empty timeline, the stored timeline is replaced by it
// in the same transaction. An empty or absent timeline leaves entries as they
// are. A path id naming no item creates a new item under a fresh id.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var body saveItemBody
	if !decodeBody(w, r, &body) {
		return
	}
	entries, ok := s.entries(w, r, body)
	if !ok {
		return
	}

	item, err := s.items.Save(r.Context(), service.SaveItemRequest{
		ID:          &id,
		Name:        body.Name,
		Description: body.Description,
		AuthorID:    s.authorID,
		Entries:     entries,
	})
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}

	status := http.StatusOK
	if item.ID != id {
		status = http.StatusCreated
		w.Header().Set("Location", "/items/"+strconv.FormatInt(item.ID, 10))
	}
	s.respondWithItem(w, r, status, item.ID)
}

// DeleteItem handles DELETE /items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	if err := s.items.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondWithItem writes the item with its sorted timeline, as read back
// from the service after a write.
func (s *Server) respondWithItem(w http.ResponseWriter, r *http.Request, status int, id int64) {
	item, err := s.items.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err, "item not found")
		return
	}
	if item.Timeline == nil {
		item.Timeline = []domain.TimelineEntry{}
	}
	writeJSON(w, status, item)
}

// itemID binds the {id} path parameter, answering 400 when it is not an integer.
func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		badRequest(w, "invalid id: "+err.Error())
		return 0, false
	}
	return id, true
}
