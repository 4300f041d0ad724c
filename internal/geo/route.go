package geo

// Route is an ordered list of stops. Order is never changed here.
type Route []Point

// Total returns the summed leg distance in km.
func (r Route) Total() float64 { return TotalRouteDistance(r) }

// Between returns the distance between stops i and j, 0 when out of range.
func (r Route) Between(i, j int) float64 { return PairwiseDistance(r, i, j) }

// Legs returns the distance of each consecutive leg; len is len(r)-1 (or 0).
func (r Route) Legs() []float64 {
	if len(r) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, GreatCircleDistanceKm(r[i], r[i+1]))
	}
	return out
}
