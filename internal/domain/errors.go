package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is returned when the requested trip, destination or place does
// not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing name, end date before start date).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNoDestinations is returned by nearest-destination resolution when the
// trip has no destinations to choose from.
var ErrNoDestinations = errors.New("trip has no destinations")

// ErrNoTrip is returned by planner mutations attempted before a trip is loaded.
var ErrNoTrip = errors.New("no trip loaded")

// ErrTransport marks a network failure talking to a collaborator.
var ErrTransport = errors.New("transport error")

// ErrDecode marks a response body that could not be decoded.
var ErrDecode = errors.New("decode error")

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load was started before it finished.
var ErrSuperseded = errors.New("superseded by a newer load")

// StatusError is returned by the API client for non-2xx responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status: %s", e.Status)
}

// Is lets errors.Is(err, ErrNotFound) match a 404 response.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}
