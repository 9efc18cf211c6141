// Package domain contains the core data types for the itinerary planner.
// This package has no dependencies on other internal packages and is imported
// by every one of them (planner, client, cache, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the root aggregate. It owns its destinations and transportation
// legs and is always persisted as a whole document.
type Trip struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	StartDate       *time.Time       `json:"startDate,omitempty"`
	EndDate         *time.Time       `json:"endDate,omitempty"`
	Destinations    []Destination    `json:"destinations"`
	Transportations []Transportation `json:"transportations"`
	UpdatedAt       time.Time        `json:"updatedAt,omitzero"`
}

// Destination is a stop on the trip with its own date range, an optional
// housing record and an ordered list of activities.
// PlaceID is the place the destination was created from; removal by place
// identity matches on it.
type Destination struct {
	ID          uuid.UUID   `json:"id"`
	PlaceID     string      `json:"placeId,omitempty"`
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Housing     *Housing    `json:"housing,omitempty"`
	Activities  []Activity  `json:"activities"`
	StartDate   *time.Time  `json:"startDate,omitempty"`
	EndDate     *time.Time  `json:"endDate,omitempty"`
}

// Activity is a schedulable event tied to a place. It belongs to exactly one
// destination at a time.
type Activity struct {
	ID       uuid.UUID  `json:"id"`
	Place    Place      `json:"place"`
	DateTime *time.Time `json:"dateTime,omitempty"`
	Website  string     `json:"website,omitempty"`
	Notes    string     `json:"notes,omitempty"`
	Price    *float64   `json:"price,omitempty"`
}

// Housing is where the traveller sleeps at a destination. A destination has
// at most one.
type Housing struct {
	ID       uuid.UUID `json:"id"`
	Place    Place     `json:"place"`
	Name     string    `json:"name"`
	CheckIn  string    `json:"checkin,omitempty"`
	CheckOut string    `json:"checkout,omitempty"`
	Website  string    `json:"website,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Price    *float64  `json:"price,omitempty"`
}

// TransportType enumerates the supported ways of travelling between places.
type TransportType string

const (
	TransportBus   TransportType = "Bus"
	TransportCar   TransportType = "Car"
	TransportPlane TransportType = "Plane"
	TransportShip  TransportType = "Ship"
	TransportTrain TransportType = "Train"
)

// Valid reports whether t is one of the known transport types.
func (t TransportType) Valid() bool {
	switch t {
	case TransportBus, TransportCar, TransportPlane, TransportShip, TransportTrain:
		return true
	}
	return false
}

// Transportation is a leg between two places. Origin and Destination hold
// place ids; Path is the travelled polyline, possibly empty.
type Transportation struct {
	ID          uuid.UUID     `json:"id"`
	Origin      string        `json:"origin"`
	Destination string        `json:"destination"`
	Path        []Coordinates `json:"path,omitempty"`
	Type        TransportType `json:"type"`
	StartDate   *time.Time    `json:"startDate,omitempty"`
	EndDate     *time.Time    `json:"endDate,omitempty"`
	Price       *float64      `json:"price,omitempty"`
	Carrier     string        `json:"carrier,omitempty"`
	Reference   string        `json:"reference,omitempty"`
}

// Clone returns a deep copy of the trip. Snapshots handed to persistence or to
// callers must not share slices or pointers with live state.
func (t Trip) Clone() Trip {
	out := t
	out.StartDate = cloneTime(t.StartDate)
	out.EndDate = cloneTime(t.EndDate)

	if t.Destinations != nil {
		out.Destinations = make([]Destination, len(t.Destinations))
		for i, d := range t.Destinations {
			out.Destinations[i] = d.Clone()
		}
	}
	if t.Transportations != nil {
		out.Transportations = make([]Transportation, len(t.Transportations))
		for i, tr := range t.Transportations {
			c := tr
			c.Path = append([]Coordinates(nil), tr.Path...)
			c.StartDate = cloneTime(tr.StartDate)
			c.EndDate = cloneTime(tr.EndDate)
			c.Price = cloneFloat(tr.Price)
			out.Transportations[i] = c
		}
	}
	return out
}

// Clone returns a deep copy of the destination.
func (d Destination) Clone() Destination {
	out := d
	out.StartDate = cloneTime(d.StartDate)
	out.EndDate = cloneTime(d.EndDate)
	if d.Housing != nil {
		h := *d.Housing
		h.Price = cloneFloat(d.Housing.Price)
		out.Housing = &h
	}
	if d.Activities != nil {
		out.Activities = make([]Activity, len(d.Activities))
		for i, a := range d.Activities {
			c := a
			c.DateTime = cloneTime(a.DateTime)
			c.Price = cloneFloat(a.Price)
			out.Activities[i] = c
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
