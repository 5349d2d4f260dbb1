// SPDX-License-Identifier: MIT

package spatial

import "math"

// Polygon is an open ring of vertices; the closing edge back to the first
// vertex is implied. Predicates compare coordinates exactly, so point and
// ring must come from the same source and projection.
type Polygon []Point

// HasVertex reports whether p coincides with one of the ring's vertices.
func (pg Polygon) HasVertex(p Point) bool {
	for _, v := range pg {
		if v.Lon == p.Lon && v.Lat == p.Lat {
			return true
		}
	}
	return false
}

// Bounds returns the min/max extent over the ring's vertices.
func (pg Polygon) Bounds() Box {
	b := Box{
		MinLat: math.Inf(1), MinLon: math.Inf(1),
		MaxLat: math.Inf(-1), MaxLon: math.Inf(-1),
	}
	for _, v := range pg {
		b.MinLat = math.Min(b.MinLat, v.Lat)
		b.MinLon = math.Min(b.MinLon, v.Lon)
		b.MaxLat = math.Max(b.MaxLat, v.Lat)
		b.MaxLon = math.Max(b.MaxLon, v.Lon)
	}
	return b
}

// OnSegment reports whether p lies on the segment from a to b, including the
// degenerate case of three coincident points.
func OnSegment(p, a, b Point) bool {
	if (b.Lon-a.Lon)*(p.Lat-a.Lat) != (p.Lon-a.Lon)*(b.Lat-a.Lat) {
		return false
	}
	if a.Lon != b.Lon {
		return (a.Lon <= p.Lon && p.Lon <= b.Lon) || (b.Lon <= p.Lon && p.Lon <= a.Lon)
	}
	return (a.Lat <= p.Lat && p.Lat <= b.Lat) || (b.Lat <= p.Lat && p.Lat <= a.Lat)
}

// Interior reports whether p is inside the ring, by ray casting. Points
// exactly on an edge or vertex may report false; Covers repairs those cases.
// The tiny nudge keeps the ray from passing through vertex heights.
func (pg Polygon) Interior(p Point) bool {
	const offset = 0.00000001

	x, y := p.Lon, p.Lat
	n := len(pg)
	inside := false

	for i := range pg {
		a, b := pg[i], pg[(i+1)%n]
		ax, ay := a.Lon, a.Lat
		bx, by := b.Lon, b.Lat

		// a is the lower endpoint of the edge
		if ay > by {
			ax, ay, bx, by = bx, by, ax, ay
		}

		if y == ay {
			ay -= offset
		} else if y == by {
			by += offset
		}

		if y > by || y < ay || x > math.Max(ax, bx) {
			continue
		}

		if x < math.Min(ax, bx) {
			inside = !inside
			continue
		}

		edgeSlope := math.Inf(1)
		if ax != bx {
			edgeSlope = (by - ay) / (bx - ax)
		}

		pointSlope := math.Inf(1)
		if ax != x {
			pointSlope = (y - ay) / (x - ax)
		}

		if pointSlope >= edgeSlope {
			inside = !inside
		}
	}

	return inside
}

// Covers reports whether p is a vertex of, on an edge of, or inside the
// ring. Unlike Interior it is exact on the boundary.
func (pg Polygon) Covers(p Point) bool {
	if pg.HasVertex(p) {
		return true
	}
	if !pg.Bounds().Contains(p) {
		return false
	}
	if pg.Interior(p) {
		return true
	}

	n := len(pg)
	for i := range pg {
		if OnSegment(p, pg[i], pg[(i+1)%n]) {
			return true
		}
	}
	return false
}
