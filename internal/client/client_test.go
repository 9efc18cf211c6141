package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary/internal/client"
	"github.com/pkordes/itinerary/internal/domain"
	"github.com/pkordes/itinerary/internal/planner"
)

// compile-time check: the client is what the planner saves through.
var _ planner.TripSource = (*client.TripClient)(nil)

func tripFixture() domain.Trip {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	return domain.Trip{
		ID:        uuid.New(),
		Name:      "Italy and France",
		StartDate: &start,
		EndDate:   &end,
		Destinations: []domain.Destination{
			{ID: uuid.New(), PlaceID: "paris", Name: "Paris", Coordinates: domain.Coordinates{Lat: 48.8566, Lng: 2.3522}, Activities: []domain.Activity{}},
		},
		Transportations: []domain.Transportation{},
	}
}

func TestTripClient_Get_OK(t *testing.T) {
	fixture := tripFixture()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/trip/"+fixture.ID.String(), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(fixture))
	}))
	t.Cleanup(srv.Close)

	got, err := client.New(srv.URL+"/").Get(context.Background(), fixture.ID)

	require.NoError(t, err)
	assert.Equal(t, fixture.ID, got.ID)
	assert.Equal(t, fixture.Name, got.Name)
	require.Len(t, got.Destinations, 1)
	assert.Equal(t, "Paris", got.Destinations[0].Name)
	assert.True(t, got.StartDate.Equal(*fixture.StartDate))
}

func TestTripClient_Get_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"not_found","message":"trip not found"}}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := client.New(srv.URL).Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestTripClient_Get_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42`))
	}))
	t.Cleanup(srv.Close)

	_, err := client.New(srv.URL).Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestTripClient_Get_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening any more

	_, err := client.New(url).Get(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestTripClient_Save_OK(t *testing.T) {
	fixture := tripFixture()
	var received domain.Trip
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/trip", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"` + fixture.ID.String() + `"}`))
	}))
	t.Cleanup(srv.Close)

	err := client.New(srv.URL).Save(context.Background(), fixture)

	require.NoError(t, err)
	assert.Equal(t, fixture.ID, received.ID)
	assert.Equal(t, fixture.Name, received.Name)
	assert.Len(t, received.Destinations, 1)
}

func TestTripClient_Save_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	t.Cleanup(srv.Close)

	err := client.New(srv.URL).Save(context.Background(), tripFixture())

	var statusErr *domain.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Code)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
