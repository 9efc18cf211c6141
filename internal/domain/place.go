package domain

import (
	"math"
	"slices"
)

// LocalityCategory is the mapping-provider category that marks a place as a
// town or city. Places carrying it become destinations; everything else
// becomes an activity.
const LocalityCategory = "locality"

// Coordinates is a WGS 84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite numbers.
func (c Coordinates) Valid() bool {
	return !math.IsNaN(c.Lat) && !math.IsInf(c.Lat, 0) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lng, 0)
}

// Place is the base entity referenced by activities, housing and destinations.
// ID is the mapping provider's place identifier.
type Place struct {
	ID          string      `json:"placeId"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
}

// MapPlace is a place as returned by the mapping provider, carrying the
// category list used to classify it.
type MapPlace struct {
	Place
	Description    string   `json:"description,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Vicinity       string   `json:"vicinity,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	Website        string   `json:"website,omitempty"`
	PhoneNumber    string   `json:"phoneNumber,omitempty"`
	Images         []string `json:"images,omitempty"`
	BusinessStatus string   `json:"businessStatus,omitempty"`
	MapsURL        string   `json:"mapsUrl,omitempty"`
}

// IsLocality reports whether the place is a town or city.
func (p MapPlace) IsLocality() bool {
	return slices.Contains(p.Categories, LocalityCategory)
}
