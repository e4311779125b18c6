// Package handler implements the HTTP handlers for the Figure Timeline API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, item.go, export.go) but share the same Server struct so
// they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/figure-timeline/internal/domain"
	"github.com/pkordes/figure-timeline/internal/service"
)

// ItemServicer defines the business operations the item handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or service layer.
// *service.ItemService satisfies it.
type ItemServicer interface {
	Save(ctx context.Context, req service.SaveItemRequest) (domain.Item, error)
	Create(ctx context.Context, name string, description *string, authorID int64) (domain.Item, error)
	Get(ctx context.Context, id int64) (domain.ItemWithTimeline, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Item, int64, error)
	Delete(ctx context.Context, id int64) error
}

// ExportServicer defines the operation the export handler depends on.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the dependencies of every endpoint.
// Wire it in main.go via Routes.
type Server struct {
	items       ItemServicer
	export      ExportServicer
	authorID    int64
	strictDates bool
	log         *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// authorID is stamped on every item saved through the API.
// log may be nil, in which case slog.Default() is used.
func NewServer(items ItemServicer, export ExportServicer, authorID int64, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{items: items, export: export, authorID: authorID, log: log}
}

// WithStrictDates makes saves reject timeline entries whose start the date
// grammar does not recognize, instead of storing them verbatim.
func (s *Server) WithStrictDates(strict bool) *Server {
	s.strictDates = strict
	return s
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, 0, nil)
}

// Routes returns the chi router serving every endpoint of the API.
// Cross-cutting middleware (request id, logging, CORS, body limit) is
// applied by the caller.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.ListItems)
		r.Post("/", s.CreateItem)
		r.Get("/{id}", s.GetItem)
		r.Put("/{id}", s.UpdateItem)
		r.Delete("/{id}", s.DeleteItem)
	})

	r.Get("/export", s.GetExport)
	return r
}
