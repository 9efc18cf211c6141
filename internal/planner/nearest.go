package planner

import (
	"fmt"
	"math"

	"github.com/pkordes/itinerary/internal/domain"
	"github.com/pkordes/itinerary/internal/geo"
)

// Nearest returns the destination closest to place by great-circle distance.
// Ties go to the destination that appears first. An empty list yields
// domain.ErrNoDestinations and non-finite place coordinates yield
// domain.ErrValidation.
func Nearest(dests []domain.Destination, place domain.Place) (domain.Destination, error) {
	if !place.Coordinates.Valid() {
		return domain.Destination{}, fmt.Errorf("%w: place %q has non-finite coordinates", domain.ErrValidation, place.ID)
	}
	i := nearestIndex(dests, place.Coordinates)
	if i < 0 {
		return domain.Destination{}, domain.ErrNoDestinations
	}
	return dests[i], nil
}

// nearestIndex returns the index of the destination closest to c, or -1.
// Destinations whose distance is not a finite number are skipped.
func nearestIndex(dests []domain.Destination, c domain.Coordinates) int {
	best := -1
	var bestDist float64
	for i, d := range dests {
		dist := geo.Distance(d.Coordinates, c).Radians()
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			continue
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
