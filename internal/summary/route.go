package summary

import (
	"wayfarer/internal/geo"
	"wayfarer/internal/model"
)

// Leg is the hop between two consecutive destinations.
type Leg struct {
	From string  `json:"from"`
	To   string  `json:"to"`
	Km   float64 `json:"km"`
}

// Route is the distance view of one itinerary, in destination order.
type Route struct {
	ItineraryID string  `json:"itineraryId"`
	TotalKm     float64 `json:"totalKm"`
	Legs        []Leg   `json:"legs"`
	// Missing lists destinations without coordinates; they are still
	// measured from (0,0).
	Missing []string `json:"missing,omitempty"`
}

func RouteView(it model.Itinerary) Route {
	r := it.Route()
	out := Route{ItineraryID: it.ID, TotalKm: r.Total(), Legs: []Leg{}}
	for i, km := range r.Legs() {
		out.Legs = append(out.Legs, Leg{
			From: it.Destinations[i].Name,
			To:   it.Destinations[i+1].Name,
			Km:   km,
		})
	}
	for _, d := range it.Destinations {
		if !d.HasCoordinates() {
			out.Missing = append(out.Missing, d.ID)
		}
	}
	return out
}

// TotalKm sums the route length of every itinerary.
func TotalKm(itineraries []model.Itinerary) float64 {
	var total float64
	for _, it := range itineraries {
		total += geo.TotalRouteDistance(it.Route())
	}
	return total
}
