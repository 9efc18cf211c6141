package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary/internal/domain"
	"github.com/pkordes/itinerary/internal/planner"
)

// memSource is an in-memory TripSource keyed by trip id.
type memSource struct {
	mu    sync.Mutex
	trips map[uuid.UUID]domain.Trip
	saves int
}

func (m *memSource) Get(_ context.Context, id uuid.UUID) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return domain.Trip{}, &domain.StatusError{Code: 404, Status: "404 Not Found"}
	}
	return t.Clone(), nil
}

func (m *memSource) Save(_ context.Context, t domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = t.Clone()
	m.saves++
	return nil
}

func date(y int, mo time.Month, d int) *time.Time {
	t := time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func seeded() (*memSource, domain.Trip) {
	trip := domain.Trip{
		ID:        uuid.New(),
		Name:      "Italy",
		StartDate: date(2024, 6, 1),
		Destinations: []domain.Destination{{
			ID:          uuid.New(),
			PlaceID:     "rome",
			Name:        "Rome",
			Coordinates: domain.Coordinates{Lat: 41.9028, Lng: 12.4964},
			Activities:  []domain.Activity{},
			StartDate:   date(2024, 6, 1),
			EndDate:     date(2024, 6, 4),
		}},
		Transportations: []domain.Transportation{},
	}
	return &memSource{trips: map[uuid.UUID]domain.Trip{trip.ID: trip}}, trip
}

func testDeps(src planner.TripSource) (deps, *bytes.Buffer) {
	var out bytes.Buffer
	return deps{
		stdout: &out,
		stderr: io.Discard,
		source: src,
		opts: []planner.Option{
			planner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			planner.WithSaveDelay(time.Minute),
		},
	}, &out
}

func TestDispatch_unknownCommand(t *testing.T) {
	d, _ := testDeps(&memSource{})
	err := dispatch(context.Background(), []string{"frobnicate"}, d)
	assert.ErrorContains(t, err, "unknown command")
}

func TestDispatch_noArgs(t *testing.T) {
	d, _ := testDeps(&memSource{})
	assert.ErrorIs(t, dispatch(context.Background(), nil, d), errUsage)
}

func TestNew_savesEmptyTrip(t *testing.T) {
	src := &memSource{trips: map[uuid.UUID]domain.Trip{}}
	d, out := testDeps(src)

	err := dispatch(context.Background(), []string{"new", "-name", "Japan", "-start", "2025-04-01"}, d)

	require.NoError(t, err)
	id, err := uuid.Parse(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	saved := src.trips[id]
	assert.Equal(t, "Japan", saved.Name)
	require.NotNil(t, saved.StartDate)
	assert.Equal(t, "2025-04-01", saved.StartDate.Format(dateLayout))
}

func TestNew_requiresName(t *testing.T) {
	d, _ := testDeps(&memSource{})
	assert.Error(t, dispatch(context.Background(), []string{"new"}, d))
}

// Mutating commands rely on the session flushing on close, so the save lands
// even though the debounce delay is a minute.
func TestAddPlace_activityFlushedOnExit(t *testing.T) {
	src, trip := seeded()
	d, out := testDeps(src)

	err := dispatch(context.Background(), []string{"add-place",
		"-trip", trip.ID.String(),
		"-place-id", "colosseum", "-name", "Colosseum",
		"-lat", "41.8902", "-lng", "12.4922",
	}, d)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "added activity")
	assert.Equal(t, 1, src.saves)
	acts := src.trips[trip.ID].Destinations[0].Activities
	require.Len(t, acts, 1)
	assert.Equal(t, "colosseum", acts[0].Place.ID)
}

func TestAddPlace_localityBecomesDestination(t *testing.T) {
	src, trip := seeded()
	d, _ := testDeps(src)

	err := dispatch(context.Background(), []string{"add-place",
		"-trip", trip.ID.String(),
		"-place-id", "florence", "-name", "Florence",
		"-lat", "43.7696", "-lng", "11.2558",
		"-categories", "locality, political",
	}, d)

	require.NoError(t, err)
	dests := src.trips[trip.ID].Destinations
	require.Len(t, dests, 2)
	assert.Equal(t, "Florence", dests[1].Name)
	assert.Equal(t, dests[0].EndDate, dests[1].StartDate)
}

func TestRemovePlace_notFound(t *testing.T) {
	src, trip := seeded()
	d, _ := testDeps(src)

	err := dispatch(context.Background(), []string{"remove-place", "-trip", trip.ID.String(), "-place-id", "nowhere"}, d)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, src.saves)
}

func TestRemovePlace_locality(t *testing.T) {
	src, trip := seeded()
	d, _ := testDeps(src)

	err := dispatch(context.Background(), []string{"remove-place", "-trip", trip.ID.String(), "-place-id", "rome", "-locality"}, d)

	require.NoError(t, err)
	assert.Empty(t, src.trips[trip.ID].Destinations)
}

func TestNearest(t *testing.T) {
	src, trip := seeded()
	d, out := testDeps(src)

	err := dispatch(context.Background(), []string{"nearest", "-trip", trip.ID.String(), "-lat", "41.89", "-lng", "12.49"}, d)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Rome")
	assert.Zero(t, src.saves)
}

func TestNearest_noDestinations(t *testing.T) {
	src, trip := seeded()
	empty := src.trips[trip.ID]
	empty.Destinations = nil
	src.trips[trip.ID] = empty
	d, _ := testDeps(src)

	err := dispatch(context.Background(), []string{"nearest", "-trip", trip.ID.String()}, d)

	assert.ErrorIs(t, err, domain.ErrNoDestinations)
}

func TestSetHousing(t *testing.T) {
	src, trip := seeded()
	d, _ := testDeps(src)
	destID := trip.Destinations[0].ID.String()

	err := dispatch(context.Background(), []string{"set-housing",
		"-trip", trip.ID.String(), "-dest", destID,
		"-place-id", "hotel-roma", "-name", "Hotel Roma", "-price", "320",
	}, d)

	require.NoError(t, err)
	h := src.trips[trip.ID].Destinations[0].Housing
	require.NotNil(t, h)
	assert.Equal(t, "hotel-roma", h.Place.ID)
	require.NotNil(t, h.Price)
	assert.InDelta(t, 320, *h.Price, 0.001)
}

func TestAddTransport_rejectsUnknownType(t *testing.T) {
	src, trip := seeded()
	d, _ := testDeps(src)

	err := dispatch(context.Background(), []string{"add-transport", "-trip", trip.ID.String(), "-type", "Zeppelin"}, d)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, src.saves)
}

func TestShow_json(t *testing.T) {
	src, trip := seeded()
	d, out := testDeps(src)

	err := dispatch(context.Background(), []string{"show", "-trip", trip.ID.String(), "-json"}, d)

	require.NoError(t, err)
	var got domain.Trip
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, trip.ID, got.ID)
}

func TestShow_text(t *testing.T) {
	src, trip := seeded()
	d, out := testDeps(src)

	require.NoError(t, dispatch(context.Background(), []string{"show", "-trip", trip.ID.String()}, d))

	assert.Contains(t, out.String(), "Italy")
	assert.Contains(t, out.String(), "Rome  2024-06-01 .. 2024-06-04")
	assert.Contains(t, out.String(), "total 0.00")
}

func TestShow_missingTrip(t *testing.T) {
	src, _ := seeded()
	d, _ := testDeps(src)

	err := dispatch(context.Background(), []string{"show", "-trip", uuid.NewString()}, d)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShow_badTripID(t *testing.T) {
	d, _ := testDeps(&memSource{})
	err := dispatch(context.Background(), []string{"show", "-trip", "nope"}, d)
	assert.ErrorContains(t, err, "-trip")
}
