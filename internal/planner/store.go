// Package planner holds the in-memory trip being planned and the rules for
// changing it: classifying new places, assigning activities to the nearest
// destination, deriving activity/housing/cost views, and saving the trip to
// the persistence API through a debounced scheduler.
//
// A Store is an explicitly owned session object. Create one per planning
// session with New and release it with Close.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/itinerary/internal/domain"
)

// ErrClosed is returned by operations on a Store after Close.
var ErrClosed = errors.New("planner store closed")

// TripSource is the remote source of truth for trips.
// client.TripClient satisfies it.
type TripSource interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Save(ctx context.Context, trip domain.Trip) error
}

// Cache is a local copy of trips used only when the remote source cannot be
// reached. cache.RedisCache satisfies it.
type Cache interface {
	Load(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	Store(ctx context.Context, trip domain.Trip) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Placement describes where AddPlace put a place.
// ActivityID is zero for destinations.
type Placement struct {
	Kind          PlacementKind
	DestinationID uuid.UUID
	ActivityID    uuid.UUID
}

// Store holds the trip being planned.
// It is safe for concurrent use; the save timer runs on its own goroutine.
type Store struct {
	remote       TripSource
	cache        Cache
	log          *slog.Logger
	saver        *Scheduler
	onStatus     func(SaveStatus)
	flushOnClose bool
	now          func() time.Time

	mu      sync.Mutex
	trip    *domain.Trip
	loadSeq uint64
	// edits counts successful mutations; persist compares it against its
	// snapshot to tell whether newer edits are still unsaved.
	edits  uint64
	status SaveStatus
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithCache sets the offline fallback cache.
func WithCache(c Cache) Option {
	return func(s *Store) { s.cache = c }
}

// WithSaveDelay sets the debounce window for saves. Defaults to DefaultSaveDelay.
func WithSaveDelay(d time.Duration) Option {
	return func(s *Store) { s.saver = NewScheduler(d) }
}

// WithLogger sets the logger used for caught load and save failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithStatusHook registers fn to be called on every save status transition.
// fn is called without the store lock held and may call back into the Store.
func WithStatusHook(fn func(SaveStatus)) Option {
	return func(s *Store) { s.onStatus = fn }
}

// WithFlushOnClose makes Close send a pending save before tearing down.
func WithFlushOnClose() Option {
	return func(s *Store) { s.flushOnClose = true }
}

// New constructs a Store that loads from and saves to remote.
func New(remote TripSource, opts ...Option) *Store {
	s := &Store{
		remote: remote,
		log:    slog.Default(),
		saver:  NewScheduler(DefaultSaveDelay),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the trip from the remote source and makes it the current trip.
//
// If the remote call fails and a cache is configured, the cached copy is used
// and SourceCache is returned. A remote domain.ErrNotFound is not a failure to
// reach the source: the cached copy is evicted instead. Otherwise the current
// trip is left untouched and the error is returned. A load that finishes
// after a newer Load started returns domain.ErrSuperseded without touching
// state.
//
// A save still pending for the previous trip is sent first.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (LoadSource, error) {
	if err := s.Flush(ctx); err != nil {
		s.log.WarnContext(ctx, "pending save failed before load", "error", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SourceNone, fmt.Errorf("planner.Store.Load: %w", ErrClosed)
	}
	s.loadSeq++
	seq := s.loadSeq
	s.mu.Unlock()

	source := SourceRemote
	trip, err := s.remote.Get(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "load trip failed", "trip_id", id, "error", err)
		if s.cache == nil {
			return SourceNone, fmt.Errorf("planner.Store.Load: %w", err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			if delErr := s.cache.Delete(ctx, id); delErr != nil {
				s.log.WarnContext(ctx, "evict cached trip failed", "trip_id", id, "error", delErr)
			}
			return SourceNone, fmt.Errorf("planner.Store.Load: %w", err)
		}
		cached, cacheErr := s.cache.Load(ctx, id)
		if cacheErr != nil {
			s.log.ErrorContext(ctx, "load trip from cache failed", "trip_id", id, "error", cacheErr)
			return SourceNone, fmt.Errorf("planner.Store.Load: %w", errors.Join(err, cacheErr))
		}
		trip, source = cached, SourceCache
	}

	s.mu.Lock()
	if seq != s.loadSeq {
		s.mu.Unlock()
		return SourceNone, fmt.Errorf("planner.Store.Load: %w", domain.ErrSuperseded)
	}
	current := normalize(trip.Clone())
	s.trip = &current
	s.mu.Unlock()

	if source == SourceRemote {
		s.refreshCache(ctx, trip)
	}
	s.log.DebugContext(ctx, "trip loaded", "trip_id", id, "source", source.String())
	return source, nil
}

// SetTrip replaces the current trip without contacting the remote source.
// It does not schedule a save.
func (s *Store) SetTrip(trip domain.Trip) {
	t := normalize(trip.Clone())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadSeq++ // any in-flight Load is now stale
	s.trip = &t
}

// Trip returns a deep copy of the current trip.
func (s *Store) Trip() (domain.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trip == nil {
		return domain.Trip{}, domain.ErrNoTrip
	}
	return s.trip.Clone(), nil
}

// AddPlace adds place to the trip.
//
// A locality becomes a new destination inserted right after the destination
// with the latest end date, inheriting that end date as both its start and
// end. Anything else becomes an activity on the nearest destination.
// Places with non-finite coordinates are rejected with domain.ErrValidation.
func (s *Store) AddPlace(place domain.MapPlace) (Placement, error) {
	var out Placement
	err := s.mutate("AddPlace", func(t *domain.Trip) error {
		if !place.Coordinates.Valid() {
			return fmt.Errorf("%w: place %q has non-finite coordinates", domain.ErrValidation, place.ID)
		}
		if place.IsLocality() {
			out = Placement{Kind: PlacedDestination, DestinationID: insertDestination(t, place.Place)}
			return nil
		}
		i := nearestIndex(t.Destinations, place.Coordinates)
		if i < 0 {
			return domain.ErrNoDestinations
		}
		a := newActivity(place.Place)
		t.Destinations[i].Activities = append(t.Destinations[i].Activities, a)
		out = Placement{Kind: PlacedActivity, DestinationID: t.Destinations[i].ID, ActivityID: a.ID}
		return nil
	})
	return out, err
}

// AddActivity adds place as an activity of the given destination.
// Returns domain.ErrNotFound if the destination does not exist.
func (s *Store) AddActivity(place domain.Place, destinationID uuid.UUID) (domain.Activity, error) {
	var out domain.Activity
	err := s.mutate("AddActivity", func(t *domain.Trip) error {
		i := destinationIndex(t, destinationID)
		if i < 0 {
			return fmt.Errorf("destination %s: %w", destinationID, domain.ErrNotFound)
		}
		out = newActivity(place)
		t.Destinations[i].Activities = append(t.Destinations[i].Activities, out)
		return nil
	})
	return out, err
}

// RemovePlace removes the destinations created from place if it is a
// locality, otherwise every activity for place across all destinations.
// Returns domain.ErrNotFound if nothing matched; no save is scheduled then.
func (s *Store) RemovePlace(place domain.MapPlace) error {
	return s.mutate("RemovePlace", func(t *domain.Trip) error {
		removed := 0
		if place.IsLocality() {
			before := len(t.Destinations)
			t.Destinations = slices.DeleteFunc(t.Destinations, func(d domain.Destination) bool {
				return d.PlaceID == place.ID
			})
			removed = before - len(t.Destinations)
		} else {
			for i := range t.Destinations {
				before := len(t.Destinations[i].Activities)
				t.Destinations[i].Activities = slices.DeleteFunc(t.Destinations[i].Activities, func(a domain.Activity) bool {
					return a.Place.ID == place.ID
				})
				removed += before - len(t.Destinations[i].Activities)
			}
		}
		if removed == 0 {
			return fmt.Errorf("place %s: %w", place.ID, domain.ErrNotFound)
		}
		return nil
	})
}

// SetHousing sets the housing of a destination, replacing any existing one.
func (s *Store) SetHousing(destinationID uuid.UUID, h domain.Housing) (domain.Housing, error) {
	if h.Place.ID == "" {
		return domain.Housing{}, fmt.Errorf("planner.Store.SetHousing: %w: housing place is required", domain.ErrValidation)
	}
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	err := s.mutate("SetHousing", func(t *domain.Trip) error {
		i := destinationIndex(t, destinationID)
		if i < 0 {
			return fmt.Errorf("destination %s: %w", destinationID, domain.ErrNotFound)
		}
		stored := h
		t.Destinations[i].Housing = &stored
		return nil
	})
	if err != nil {
		return domain.Housing{}, err
	}
	return h, nil
}

// RemoveHousing clears the housing of a destination.
// Returns domain.ErrNotFound if the destination has none.
func (s *Store) RemoveHousing(destinationID uuid.UUID) error {
	return s.mutate("RemoveHousing", func(t *domain.Trip) error {
		i := destinationIndex(t, destinationID)
		if i < 0 || t.Destinations[i].Housing == nil {
			return fmt.Errorf("housing for destination %s: %w", destinationID, domain.ErrNotFound)
		}
		t.Destinations[i].Housing = nil
		return nil
	})
}

// AddTransportation appends a transportation leg to the trip.
func (s *Store) AddTransportation(tr domain.Transportation) (domain.Transportation, error) {
	if !tr.Type.Valid() {
		return domain.Transportation{}, fmt.Errorf("planner.Store.AddTransportation: %w: unknown transport type %q", domain.ErrValidation, tr.Type)
	}
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	err := s.mutate("AddTransportation", func(t *domain.Trip) error {
		t.Transportations = append(t.Transportations, tr)
		return nil
	})
	if err != nil {
		return domain.Transportation{}, err
	}
	return tr, nil
}

// RemoveTransportation removes a transportation leg by id.
func (s *Store) RemoveTransportation(id uuid.UUID) error {
	return s.mutate("RemoveTransportation", func(t *domain.Trip) error {
		before := len(t.Transportations)
		t.Transportations = slices.DeleteFunc(t.Transportations, func(tr domain.Transportation) bool {
			return tr.ID == id
		})
		if len(t.Transportations) == before {
			return fmt.Errorf("transportation %s: %w", id, domain.ErrNotFound)
		}
		return nil
	})
}

// NearestDestination returns the destination closest to place.
func (s *Store) NearestDestination(place domain.Place) (domain.Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trip == nil {
		return domain.Destination{}, fmt.Errorf("planner.Store.NearestDestination: %w", domain.ErrNoTrip)
	}
	d, err := Nearest(s.trip.Destinations, place)
	if err != nil {
		return domain.Destination{}, fmt.Errorf("planner.Store.NearestDestination: %w", err)
	}
	return d.Clone(), nil
}

// SaveStatus returns the state of the most recent save.
func (s *Store) SaveStatus() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Flush sends a pending save immediately and returns its error. With nothing
// pending it waits for a save the timer already started and returns that
// save's error.
func (s *Store) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// Close tears the session down. A pending save is cancelled, or sent first
// when the Store was built WithFlushOnClose. Either way Close waits for a
// save the timer already started. Close is idempotent.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if !s.flushOnClose {
		s.saver.Stop()
	}
	// With the pending save dropped this only waits for a running one.
	err := s.Flush(ctx)
	s.saver.Stop()
	if err != nil {
		return fmt.Errorf("planner.Store.Close: %w", err)
	}
	return nil
}

// mutate applies fn to the current trip under the lock and schedules a save
// when fn succeeds.
func (s *Store) mutate(op string, fn func(t *domain.Trip) error) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return fmt.Errorf("planner.Store.%s: %w", op, ErrClosed)
	case s.trip == nil:
		s.mu.Unlock()
		return fmt.Errorf("planner.Store.%s: %w", op, domain.ErrNoTrip)
	}
	if err := fn(s.trip); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("planner.Store.%s: %w", op, err)
	}
	s.edits++
	hook := s.setStatusLocked(SaveStatus{State: SavePending, At: s.now()})
	s.mu.Unlock()

	hook()
	s.saver.Schedule(s.persist)
	return nil
}

// persist sends a snapshot of the current trip to the remote source. It runs
// only through the save scheduler, which keeps saves from overlapping.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	if s.trip == nil {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.trip.Clone()
	seq := s.edits
	hook := s.setStatusLocked(SaveStatus{State: SaveInFlight, At: s.now()})
	s.mu.Unlock()
	hook()

	err := s.remote.Save(ctx, snapshot)
	if err != nil {
		s.log.ErrorContext(ctx, "save trip failed", "trip_id", snapshot.ID, "error", err)
	}

	// An edit made while the save was in flight is not covered by it, so the
	// state stays pending. Err still carries this save's failure.
	s.mu.Lock()
	st := SaveStatus{State: SaveSucceeded, Err: err, At: s.now()}
	if err != nil {
		st.State = SaveFailed
	}
	if s.edits != seq {
		st.State = SavePending
	}
	hook = s.setStatusLocked(st)
	s.mu.Unlock()
	hook()

	if err != nil {
		return fmt.Errorf("planner.Store.persist: %w", err)
	}
	s.refreshCache(ctx, snapshot)
	return nil
}

func (s *Store) refreshCache(ctx context.Context, trip domain.Trip) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Store(ctx, trip); err != nil {
		s.log.WarnContext(ctx, "cache trip failed", "trip_id", trip.ID, "error", err)
	}
}

// setStatusLocked records st and returns the call that notifies the status
// hook. The caller holds s.mu and must invoke the result after unlocking.
func (s *Store) setStatusLocked(st SaveStatus) func() {
	s.status = st
	hook := s.onStatus
	if hook == nil {
		return func() {}
	}
	return func() { hook(st) }
}

// insertDestination places a new destination for place right after the
// chronologically last one and returns its id.
func insertDestination(t *domain.Trip, place domain.Place) uuid.UUID {
	last := lastByEndDate(t.Destinations)

	date := t.StartDate
	if last >= 0 {
		date = t.Destinations[last].EndDate
	}

	d := domain.Destination{
		ID:          uuid.New(),
		PlaceID:     place.ID,
		Name:        place.Name,
		Coordinates: place.Coordinates,
		Activities:  []domain.Activity{},
		StartDate:   copyTime(date),
		EndDate:     copyTime(date),
	}
	t.Destinations = slices.Insert(t.Destinations, last+1, d)
	return d.ID
}

// lastByEndDate returns the index of the destination with the latest end
// date, or -1 for an empty list. Missing end dates sort first and ties go to
// the later position, so a list without dates yields its final element.
func lastByEndDate(dests []domain.Destination) int {
	last := -1
	for i, d := range dests {
		if last < 0 || !endsBefore(d.EndDate, dests[last].EndDate) {
			last = i
		}
	}
	return last
}

func endsBefore(a, b *time.Time) bool {
	switch {
	case a == nil:
		return b != nil
	case b == nil:
		return false
	}
	return a.Before(*b)
}

func destinationIndex(t *domain.Trip, id uuid.UUID) int {
	return slices.IndexFunc(t.Destinations, func(d domain.Destination) bool { return d.ID == id })
}

func newActivity(place domain.Place) domain.Activity {
	return domain.Activity{ID: uuid.New(), Place: place}
}

// normalize replaces nil collections so serialized trips carry empty arrays.
func normalize(t domain.Trip) domain.Trip {
	if t.Destinations == nil {
		t.Destinations = []domain.Destination{}
	}
	if t.Transportations == nil {
		t.Transportations = []domain.Transportation{}
	}
	for i := range t.Destinations {
		if t.Destinations[i].Activities == nil {
			t.Destinations[i].Activities = []domain.Activity{}
		}
	}
	return t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
