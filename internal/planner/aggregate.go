package planner

import "github.com/pkordes/itinerary/internal/domain"

// Activities returns every activity across all destinations, in destination
// order. The result is empty when no trip is loaded.
func (s *Store) Activities() []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trip == nil {
		return []domain.Activity{}
	}
	return activitiesOf(s.trip.Clone().Destinations)
}

// Housing returns one entry per destination that has housing.
func (s *Store) Housing() []domain.Housing {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trip == nil {
		return []domain.Housing{}
	}
	return housingOf(s.trip.Clone().Destinations)
}

// Cost returns the sum of all activity and housing prices. Missing prices
// count as zero.
func (s *Store) Cost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.trip == nil {
		return 0
	}
	return TotalCost(s.trip.Destinations)
}

// TotalCost sums activity and housing prices across dests.
func TotalCost(dests []domain.Destination) float64 {
	var total float64
	for _, a := range activitiesOf(dests) {
		total += priceOf(a.Price)
	}
	for _, h := range housingOf(dests) {
		total += priceOf(h.Price)
	}
	return total
}

func activitiesOf(dests []domain.Destination) []domain.Activity {
	out := []domain.Activity{}
	for _, d := range dests {
		out = append(out, d.Activities...)
	}
	return out
}

func housingOf(dests []domain.Destination) []domain.Housing {
	out := []domain.Housing{}
	for _, d := range dests {
		if d.Housing != nil {
			out = append(out, *d.Housing)
		}
	}
	return out
}

func priceOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
