// Package geo computes great-circle distances between coordinates using the
// S2 geometry library.
package geo

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/pkordes/itinerary/internal/domain"
)

// EarthRadiusMeters is the mean Earth radius used to turn angles into lengths.
const EarthRadiusMeters = 6371008.8

// LatLng converts domain coordinates into an S2 LatLng.
func LatLng(c domain.Coordinates) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// Distance returns the central angle between a and b.
// Angles compare correctly as distances, so callers ranking by proximity do
// not need to convert to meters.
func Distance(a, b domain.Coordinates) s1.Angle {
	return LatLng(a).Distance(LatLng(b))
}

// DistanceMeters returns the great-circle distance between a and b in meters.
func DistanceMeters(a, b domain.Coordinates) float64 {
	return Distance(a, b).Radians() * EarthRadiusMeters
}

// PathLength returns the length of the polyline in meters. Paths with fewer
// than two points have zero length.
func PathLength(path []domain.Coordinates) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += DistanceMeters(path[i-1], path[i])
	}
	return total
}
