// README: Pure geographic helpers shared by routing, matching, and geofencing.
package geo

import (
	"math"
	"strings"
)

// EarthRadiusMiles is the mean Earth radius used by every distance in this module.
const EarthRadiusMiles = 3959.0

const metersPerMile = 1609.344

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a finite coordinate inside the lat/lng ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance in miles between two points
// specified in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

// Between is Distance for two Points.
func Between(a, b Point) float64 {
	return Distance(a.Lat, a.Lng, b.Lat, b.Lng)
}

// DistanceMeters is Between expressed in meters, for geofence radii.
func DistanceMeters(a, b Point) float64 {
	return MilesToMeters(Between(a, b))
}

func MilesToMeters(mi float64) float64 {
	return mi * metersPerMile
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ContainsCircle reports whether p lies within radiusMeters of center.
func ContainsCircle(center Point, radiusMeters float64, p Point) bool {
	return DistanceMeters(center, p) <= radiusMeters
}

// ContainsPolygon tests p against a closed ring using ray casting. Rings with
// fewer than three vertices contain nothing. Longitude is treated as x.
func ContainsPolygon(ring []Point, p Point) bool {
	if len(ring) < 3 {
		return false
	}
	inside := false
	j := len(ring) - 1
	for i := 0; i < len(ring); i++ {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// SameZIPArea compares the 3-digit sectional prefix of two US ZIP codes.
//
// This is a coarse stand-in for real geocoding: a shared prefix usually means
// the same sectional center facility, which can span tens of miles. It is only
// used when coordinates are missing.
func SameZIPArea(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if len(a) < 3 || len(b) < 3 {
		return false
	}
	for _, c := range a[:3] + b[:3] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return a[:3] == b[:3]
}
