package planner

import "time"

// SaveState is the lifecycle of the most recent save request.
type SaveState int

const (
	// SaveIdle means nothing has been saved or scheduled yet.
	SaveIdle SaveState = iota
	// SavePending means a save is waiting for the debounce window to close.
	SavePending
	// SaveInFlight means the trip is being sent to the persistence API.
	SaveInFlight
	// SaveSucceeded means the last save was acknowledged.
	SaveSucceeded
	// SaveFailed means the last save failed; SaveStatus.Err holds the cause.
	SaveFailed
)

func (s SaveState) String() string {
	switch s {
	case SaveIdle:
		return "idle"
	case SavePending:
		return "pending"
	case SaveInFlight:
		return "in_flight"
	case SaveSucceeded:
		return "succeeded"
	case SaveFailed:
		return "failed"
	}
	return "unknown"
}

// SaveStatus is reported to callers so the UI can show whether the trip on
// screen has reached the backend.
type SaveStatus struct {
	State SaveState
	Err   error
	At    time.Time
}

// LoadSource tells the caller where a loaded trip came from.
type LoadSource int

const (
	SourceNone LoadSource = iota
	SourceRemote
	SourceCache
)

func (s LoadSource) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCache:
		return "cache"
	}
	return "none"
}

// PlacementKind says what AddPlace turned a place into.
type PlacementKind int

const (
	PlacedDestination PlacementKind = iota + 1
	PlacedActivity
)

func (k PlacementKind) String() string {
	switch k {
	case PlacedDestination:
		return "destination"
	case PlacedActivity:
		return "activity"
	}
	return "unknown"
}
