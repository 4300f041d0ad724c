// Package geo computes great-circle distances over itinerary routes.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point is a position in degrees. Callers resolve missing coordinates
// before building a Point.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// GreatCircleDistanceKm returns the haversine distance between a and b in kilometers.
func GreatCircleDistanceKm(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair outside [0,1] for antipodal points
	if h > 1 {
		h = 1
	}
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// PairwiseDistance returns the distance between route[i] and route[j],
// or 0 when either index falls outside the route.
func PairwiseDistance(route []Point, i, j int) float64 {
	if i < 0 || j < 0 || i >= len(route) || j >= len(route) {
		return 0
	}
	return GreatCircleDistanceKm(route[i], route[j])
}

// TotalRouteDistance sums the legs between consecutive points in insertion order.
func TotalRouteDistance(route []Point) float64 {
	total := 0.0
	for i := 0; i < len(route)-1; i++ {
		total += GreatCircleDistanceKm(route[i], route[i+1])
	}
	return total
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
