// SPDX-License-Identifier: MIT

package mask

import (
	"context"
	"fmt"

	"github.com/golang/geo/s2"
	"github.com/pierrre/geohash"

	"github.com/ManuGH/geoanonymizer/spatial"
)

const (
	// maxGeohashLength is where geohash resolution exhausts float64.
	maxGeohashLength = 12

	// maxCellLevel is the finest S2 cell subdivision.
	maxCellLevel = 30
)

// GeohashSnap collapses coordinates onto a geohash grid: the point is
// encoded to Length characters and replaced by the center of that cell, so
// every point inside a cell produces the same output. Length 1 cells span
// thousands of kilometers, length 12 about four centimeters. Altitude is
// left untouched.
//
// Snapping provides spatial k-anonymity by aggregation rather than
// displacement: unlike the randomized strategies it is deterministic, so it
// needs no consistency store to keep repeated coordinates aligned.
type GeohashSnap struct {
	Length int
}

func (g GeohashSnap) Apply(_ context.Context, p spatial.Point) (spatial.Point, error) {
	if g.Length < 1 || g.Length > maxGeohashLength {
		return spatial.Point{}, fmt.Errorf("geohash length %d outside [1,%d]", g.Length, maxGeohashLength)
	}
	gh := geohash.Encode(p.Lat, p.Lon, g.Length)
	box, err := geohash.Decode(gh)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("decode geohash %q: %w", gh, err)
	}
	center := box.Center()
	p.Lat = center.Lat
	p.Lon = center.Lon
	return p, nil
}

// CellSnap replaces the point with the center of its S2 cell at Level.
// Level 0 cells are continent sized, level 30 about a centimeter; level 13
// is roughly a neighborhood. Altitude is left untouched.
//
// S2 cells have near-uniform area across latitudes, which makes CellSnap
// preferable to GeohashSnap for data sets far from the equator.
type CellSnap struct {
	Level int
}

func (c CellSnap) Apply(_ context.Context, p spatial.Point) (spatial.Point, error) {
	if c.Level < 0 || c.Level > maxCellLevel {
		return spatial.Point{}, fmt.Errorf("cell level %d outside [0,%d]", c.Level, maxCellLevel)
	}
	cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)).Parent(c.Level)
	center := cell.LatLng()
	p.Lat = center.Lat.Degrees()
	p.Lon = center.Lng.Degrees()
	return p, nil
}
