// SPDX-License-Identifier: MIT

package geofence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// FromGeoJSON builds a fence from a GeoJSON document. FeatureCollection,
// Feature and bare geometry documents are accepted; Polygon and
// MultiPolygon geometries become regions and everything else is ignored. A
// document without a single polygon is an error.
func FromGeoJSON(policy Policy, data []byte) (*Fence, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse fence: %w", err)
	}

	var geoms []orb.Geometry
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse fence: %w", err)
		}
		for _, feat := range fc.Features {
			geoms = append(geoms, feat.Geometry)
		}
	case "Feature":
		feat, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("parse fence: %w", err)
		}
		geoms = append(geoms, feat.Geometry)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("parse fence: %w", err)
		}
		geoms = append(geoms, g.Geometry())
	}

	f := &Fence{Policy: policy}
	for _, g := range geoms {
		switch g.(type) {
		case orb.Polygon, orb.MultiPolygon:
			f.regions = append(f.regions, orbRegion{geom: g})
		}
	}
	if len(f.regions) == 0 {
		return nil, fmt.Errorf("fence contains no polygon")
	}
	return f, nil
}

// Load reads a GeoJSON fence from a file.
func Load(policy Policy, path string) (*Fence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fence: %w", err)
	}
	return FromGeoJSON(policy, data)
}

// orbRegion evaluates containment on GeoJSON geometries. GeoJSON order is
// longitude first, so spatial points map to orb.Point{Lon, Lat}.
type orbRegion struct {
	geom orb.Geometry
}

func (r orbRegion) Contains(p spatial.Point) bool {
	pt := orb.Point{p.Lon, p.Lat}
	switch g := r.geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}
