// SPDX-License-Identifier: MIT

// Package spatial provides geodetic primitives: WGS84 points, great-circle
// distance, bounding boxes, Web Mercator projection, and polygon predicates.
//
// Latitude and longitude are degrees, altitude is meters. Polygon predicates
// operate in whatever projection point and ring share; mixing projections is
// a caller bug.
package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Validation errors returned by Point.Validate.
var (
	ErrLatitudeRange  = errors.New("latitude out of range [-90, 90]")
	ErrLongitudeRange = errors.New("longitude out of range [-180, 180]")
	ErrNotFinite      = errors.New("coordinate is not a finite number")
)

// Point is a WGS84 coordinate. Alt is only meaningful when HasAlt is set;
// the zero Point is a valid coordinate at 0°N 0°E without altitude.
type Point struct {
	Lat    float64
	Lon    float64
	Alt    float64
	HasAlt bool
}

// New returns a point without altitude.
func New(lat, lon float64) Point {
	return Point{Lat: lat, Lon: lon}
}

// NewWithAlt returns a point carrying an altitude in meters.
func NewWithAlt(lat, lon, alt float64) Point {
	return Point{Lat: lat, Lon: lon, Alt: alt, HasAlt: true}
}

// Validate reports whether the point is a finite, in-range WGS84 coordinate.
func (p Point) Validate() error {
	for _, v := range [...]float64{p.Lat, p.Lon, p.Alt} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrNotFinite, v)
		}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: %v", ErrLatitudeRange, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: %v", ErrLongitudeRange, p.Lon)
	}
	return nil
}

// Normalize folds out-of-range coordinates back into the WGS84 value range.
// Latitude wraps modulo 180: 112.3456° becomes -67.6544°, not 67.6544°, and
// the longitude stays untouched by the fold. That matches how additively
// displaced points wrapped in the original masking implementation, so
// displaced data stays comparable across both. In-range values, including
// the ±90/±180 boundaries, are returned unchanged.
func Normalize(p Point) Point {
	if p.Lat < -90 || p.Lat > 90 {
		p.Lat = fold(p.Lat, 90, 180)
	}
	if p.Lon < -180 || p.Lon > 180 {
		p.Lon = fold(p.Lon, 180, 360)
	}
	return p
}

func fold(v, offset, span float64) float64 {
	m := math.Mod(v+offset, span)
	if m < 0 {
		m += span
	}
	return m - offset
}

// String formats the point as "lat,lon" or "lat,lon,alt" using the shortest
// float form that round-trips. It doubles as the key for consistent masking.
func (p Point) String() string {
	s := strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
	if p.HasAlt {
		s += "," + strconv.FormatFloat(p.Alt, 'f', -1, 64)
	}
	return s
}
