// Package service contains the business logic for the trip API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary/internal/domain"
	"github.com/pkordes/itinerary/internal/repo"
)

// TripService implements business logic for storing whole trip documents.
type TripService struct {
	repo repo.TripRepo
}

// NewTripService constructs a TripService backed by the provided TripRepo.
func NewTripService(r repo.TripRepo) *TripService {
	return &TripService{repo: r}
}

// GetByID returns a single trip by ID.
func (s *TripService) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	trip, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetByID: %w", err)
	}
	return trip, nil
}

// Save validates the trip and stores it, replacing any previous version.
// A trip without an id is assigned one. There is no conflict detection: the
// last write wins.
func (s *TripService) Save(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	if err := validateTrip(trip); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Save: %w", err)
	}
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	result, err := s.repo.Upsert(ctx, trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.Save: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of trips and the total count.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	trips, total, err := s.repo.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TripService.ListPaged: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, total, nil
}

// Delete removes a trip by ID.
func (s *TripService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TripService.Delete: %w", err)
	}
	return nil
}

// validateTrip enforces the rules every stored trip must satisfy.
//   - Name must be non-empty (whitespace-only names are rejected).
//   - End dates must not precede start dates, for the trip and each destination.
//   - Destination ids are unique; activity and housing places have an id.
//   - Transportation legs have a known type.
func validateTrip(t domain.Trip) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if endsBeforeStart(t.StartDate, t.EndDate) {
		return fmt.Errorf("%w: endDate must not be before startDate", domain.ErrValidation)
	}

	seen := make(map[uuid.UUID]bool, len(t.Destinations))
	for i, d := range t.Destinations {
		if d.ID == uuid.Nil {
			return fmt.Errorf("%w: destinations[%d]: id is required", domain.ErrValidation, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: destinations[%d]: duplicate id %s", domain.ErrValidation, i, d.ID)
		}
		seen[d.ID] = true

		if endsBeforeStart(d.StartDate, d.EndDate) {
			return fmt.Errorf("%w: destinations[%d]: endDate must not be before startDate", domain.ErrValidation, i)
		}
		if d.Housing != nil && d.Housing.Place.ID == "" {
			return fmt.Errorf("%w: destinations[%d]: housing place is required", domain.ErrValidation, i)
		}
		for j, a := range d.Activities {
			if a.Place.ID == "" {
				return fmt.Errorf("%w: destinations[%d].activities[%d]: place is required", domain.ErrValidation, i, j)
			}
		}
	}

	for i, tr := range t.Transportations {
		if !tr.Type.Valid() {
			return fmt.Errorf("%w: transportations[%d]: unknown type %q", domain.ErrValidation, i, tr.Type)
		}
	}
	return nil
}

func endsBeforeStart(start, end *time.Time) bool {
	return start != nil && end != nil && end.Before(*start)
}
