// SPDX-License-Identifier: MIT

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToWebMercatorAnchors(t *testing.T) {
	x, y := ToWebMercator(New(0, 180))
	assert.InDelta(t, 20037508.34, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, y = ToWebMercator(New(0, -180))
	assert.InDelta(t, -20037508.34, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, y = ToWebMercator(New(0, 0))
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, 0, y, 1e-9)
}

func TestWebMercatorRoundTrip(t *testing.T) {
	points := []Point{
		New(50.9, 6.9),
		New(-33.8688, 151.2093),
		New(35.681236, 139.767125),
		New(84.99, -179.9),
		New(-84.99, 179.9),
	}

	for _, p := range points {
		x, y := ToWebMercator(p)
		back := FromWebMercator(x, y)
		assert.InDelta(t, p.Lat, back.Lat, 1e-9, "lat of %v", p)
		assert.InDelta(t, p.Lon, back.Lon, 1e-9, "lon of %v", p)
	}
}

func TestDistance(t *testing.T) {
	// One degree of longitude on the equator is R * pi/180.
	d := Distance(New(0, 0), New(0, 1))
	assert.InDelta(t, 111194.9266, d, 0.05)

	assert.Zero(t, Distance(New(48.2, 16.37), New(48.2, 16.37)))

	// Symmetric.
	a, b := New(52.52, 13.405), New(53.5511, 9.9937)
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
}

func TestBoundingBox(t *testing.T) {
	box := BoundingBox(New(0, 0), MetersPerDegree)
	assert.InDelta(t, -1, box.MinLat, 1e-9)
	assert.InDelta(t, 1, box.MaxLat, 1e-9)
	assert.InDelta(t, -1, box.MinLon, 1e-9)
	assert.InDelta(t, 1, box.MaxLon, 1e-9)

	// Longitude span widens away from the equator.
	north := BoundingBox(New(60, 0), MetersPerDegree)
	assert.Greater(t, north.MaxLon-north.MinLon, box.MaxLon-box.MinLon)
	assert.InDelta(t, 2, north.MaxLat-north.MinLat, 1e-9)
}
