package geo

import (
	"math"
	"testing"
)

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestGreatCircleDistanceSamePoint(t *testing.T) {
	pts := []Point{{0, 0}, {51.5074, -0.1278}, {-33.8688, 151.2093}, {89.9, 179.9}}
	for _, p := range pts {
		if d := GreatCircleDistanceKm(p, p); d != 0 {
			t.Fatalf("distance(%v,%v) = %v, want 0", p, p, d)
		}
	}
}

func TestGreatCircleDistanceSymmetric(t *testing.T) {
	a := Point{Lat: 48.8566, Lng: 2.3522}
	b := Point{Lat: 40.7128, Lng: -74.0060}
	if ab, ba := GreatCircleDistanceKm(a, b), GreatCircleDistanceKm(b, a); ab != ba {
		t.Fatalf("not symmetric: %v vs %v", ab, ba)
	}
}

func TestGreatCircleDistanceKnownValues(t *testing.T) {
	cases := []struct {
		name string
		a, b Point
		want float64
		tol  float64
	}{
		{"quarter circle", Point{0, 0}, Point{0, 90}, 10007.5, 1},
		{"pole to pole", Point{90, 0}, Point{-90, 0}, math.Pi * EarthRadiusKm, 1},
		{"paris-london", Point{48.8566, 2.3522}, Point{51.5074, -0.1278}, 343.5, 2},
	}
	for _, tc := range cases {
		got := GreatCircleDistanceKm(tc.a, tc.b)
		if !approx(got, tc.want, tc.tol) {
			t.Errorf("%s: got %.2f want %.2f±%.1f", tc.name, got, tc.want, tc.tol)
		}
		if got < 0 {
			t.Errorf("%s: negative distance %v", tc.name, got)
		}
	}
}

func TestPairwiseDistanceOutOfRange(t *testing.T) {
	route := []Point{{0, 0}, {0, 90}}
	for _, idx := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {5, 7}} {
		if d := PairwiseDistance(route, idx[0], idx[1]); d != 0 {
			t.Fatalf("PairwiseDistance(%d,%d) = %v, want 0", idx[0], idx[1], d)
		}
	}
	if d := PairwiseDistance(nil, 0, 0); d != 0 {
		t.Fatalf("empty route: got %v", d)
	}
	if d := PairwiseDistance(route, 0, 1); !approx(d, 10007.5, 1) {
		t.Fatalf("in range: got %v", d)
	}
}

func TestTotalRouteDistance(t *testing.T) {
	if d := TotalRouteDistance(nil); d != 0 {
		t.Fatalf("empty route: %v", d)
	}
	if d := TotalRouteDistance([]Point{{10, 10}}); d != 0 {
		t.Fatalf("single stop: %v", d)
	}
	route := []Point{{0, 0}, {0, 45}, {0, 90}, {10, 90}}
	sum := 0.0
	for i := 0; i < len(route)-1; i++ {
		sum += PairwiseDistance(route, i, i+1)
	}
	if got := TotalRouteDistance(route); !approx(got, sum, 1e-9) {
		t.Fatalf("total %v != sum of legs %v", got, sum)
	}
	// insertion order is kept: a back-and-forth route is longer than the direct one
	zigzag := []Point{{0, 0}, {0, 90}, {0, 0}}
	if got := TotalRouteDistance(zigzag); !approx(got, 2*10007.5, 2) {
		t.Fatalf("zigzag: %v", got)
	}
}

func TestRouteHelpers(t *testing.T) {
	r := Route{{0, 0}, {0, 45}, {0, 90}}
	legs := r.Legs()
	if len(legs) != 2 {
		t.Fatalf("legs: %d", len(legs))
	}
	if !approx(legs[0]+legs[1], r.Total(), 1e-9) {
		t.Fatalf("legs do not add up to total")
	}
	if r.Between(0, 2) != PairwiseDistance(r, 0, 2) {
		t.Fatalf("Between mismatch")
	}
	if got := (Route{}).Legs(); len(got) != 0 {
		t.Fatalf("empty legs: %v", got)
	}
}
