// Package handler implements the HTTP handlers for the trip persistence API.
// All handlers are methods on Server; Routes mounts them on a chi router.
// Methods are split into files by resource (health.go, trip.go) but share the
// Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/itinerary/internal/domain"
)

// TripServicer defines the business operations the trip handlers depend on.
// Declaring it here, in the consumer, lets handler tests inject a mock
// without touching the database or service layer.
type TripServicer interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Save(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Server holds the dependencies of every API endpoint.
type Server struct {
	trips   TripServicer
	openAPI []byte
}

// NewServer constructs the Server with all its dependencies.
// openAPI is served verbatim at /openapi.yaml; nil disables the route.
func NewServer(trips TripServicer, openAPI []byte) *Server {
	return &Server{trips: trips, openAPI: openAPI}
}

// Routes returns a chi router with every endpoint mounted.
// Middleware is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}

	r.Post("/trip", s.SaveTrip)
	r.Get("/trip/{id}", s.GetTrip)
	r.Delete("/trip/{id}", s.DeleteTrip)
	r.Get("/trips", s.ListTrips)
	return r
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(s.openAPI)
}
