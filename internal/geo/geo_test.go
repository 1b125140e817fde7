package geo

import (
	"math"
	"testing"
)

func TestDistance_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantMi    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 33.4484, lng1: -112.0740,
			lat2: 33.4484, lng2: -112.0740,
			wantMi:    0,
			tolerance: 0.0001,
		},
		{
			name: "one degree of longitude on the equator",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 1,
			wantMi:    EarthRadiusMiles * math.Pi / 180,
			tolerance: 0.0001,
		},
		{
			name: "New York to Los Angeles (~2451mi)",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantMi:    2451,
			tolerance: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantMi) > tt.tolerance {
				t.Errorf("Distance() = %f, want %f (±%f)", got, tt.wantMi, tt.tolerance)
			}
		})
	}
}

func TestDistance_Symmetry(t *testing.T) {
	pairs := [][4]float64{
		{33.0, -112.0, 34.0, -111.0},
		{-33.86, 151.2, 51.5, -0.12},
		{0, 0, 0, 180},
	}
	for _, p := range pairs {
		d1 := Distance(p[0], p[1], p[2], p[3])
		d2 := Distance(p[2], p[3], p[0], p[1])
		if math.Abs(d1-d2) > 1e-9 {
			t.Errorf("distance is not symmetric for %v: %f vs %f", p, d1, d2)
		}
		if d1 < 0 {
			t.Errorf("negative distance for %v: %f", p, d1)
		}
	}
}

func TestDistance_NaNPropagates(t *testing.T) {
	if d := Distance(math.NaN(), 0, 1, 1); !math.IsNaN(d) {
		t.Errorf("expected NaN, got %f", d)
	}
}

func TestPointValid(t *testing.T) {
	cases := map[Point]bool{
		{Lat: 33.4, Lng: -112.1}:   true,
		{Lat: 91, Lng: 0}:          false,
		{Lat: 0, Lng: -181}:        false,
		{Lat: math.NaN(), Lng: 0}:  false,
		{Lat: 0, Lng: math.Inf(1)}: false,
		{Lat: -90, Lng: 180}:       true,
	}
	for p, want := range cases {
		if got := p.Valid(); got != want {
			t.Errorf("%v.Valid() = %v, want %v", p, got, want)
		}
	}
}

func TestContainsCircle(t *testing.T) {
	center := Point{Lat: 33.4484, Lng: -112.0740}
	near := Point{Lat: 33.4490, Lng: -112.0740} // ~67m north
	far := Point{Lat: 33.4600, Lng: -112.0740}  // ~1.3km north

	if !ContainsCircle(center, 100, near) {
		t.Error("expected near point inside 100m fence")
	}
	if ContainsCircle(center, 100, far) {
		t.Error("expected far point outside 100m fence")
	}
	if !ContainsCircle(center, 0, center) {
		t.Error("center must be inside a zero-radius fence")
	}
}

func TestContainsPolygon(t *testing.T) {
	square := []Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 1, Lng: 1},
		{Lat: 1, Lng: 0},
	}
	if !ContainsPolygon(square, Point{Lat: 0.5, Lng: 0.5}) {
		t.Error("expected center inside square")
	}
	if ContainsPolygon(square, Point{Lat: 1.5, Lng: 0.5}) {
		t.Error("expected point above square outside")
	}
	if ContainsPolygon(square[:2], Point{Lat: 0, Lng: 0.5}) {
		t.Error("degenerate ring must contain nothing")
	}
}

func TestSameZIPArea(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"85009", "85031", true},
		{"85009", "86001", false},
		{"85", "85009", false},
		{"", "", false},
		{"AB123", "AB145", false},
		{" 85009", "850", true},
	}
	for _, tt := range tests {
		if got := SameZIPArea(tt.a, tt.b); got != tt.want {
			t.Errorf("SameZIPArea(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
