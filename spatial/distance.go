// SPDX-License-Identifier: MIT

package spatial

import "math"

const (
	earthRadiusKm = 6371.0

	// MetersPerDegree is the flat-earth width of one degree of latitude.
	// Longitude degrees shrink with cos(lat); Distance is exact where this
	// approximation is not good enough.
	MetersPerDegree = 111320.0
)

// Distance returns the great-circle (haversine) distance between a and b in
// meters. Altitude is ignored.
func Distance(a, b Point) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c * 1000
}

// Box is an axis-aligned latitude/longitude rectangle. Corner order is free:
// Contains spans the min/max of the stored corners, so a box built from any
// two opposite corners behaves the same.
type Box struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Contains reports whether p lies within the box, boundary included.
func (b Box) Contains(p Point) bool {
	return p.Lon >= math.Min(b.MinLon, b.MaxLon) && p.Lon <= math.Max(b.MinLon, b.MaxLon) &&
		p.Lat >= math.Min(b.MinLat, b.MaxLat) && p.Lat <= math.Max(b.MinLat, b.MaxLat)
}

// BoundingBox returns the box enclosing a circle of radiusMeters around
// center, using the meters-per-degree approximation. Near the poles the
// longitude span degenerates; callers this close to ±90° want Distance.
func BoundingBox(center Point, radiusMeters float64) Box {
	latDelta := radiusMeters / MetersPerDegree
	lonDelta := radiusMeters / (MetersPerDegree * math.Cos(center.Lat*math.Pi/180))

	return Box{
		MinLat: center.Lat - latDelta,
		MinLon: center.Lon - lonDelta,
		MaxLat: center.Lat + latDelta,
		MaxLon: center.Lon + lonDelta,
	}
}
