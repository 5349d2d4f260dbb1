// SPDX-License-Identifier: MIT

// Package store provides the persistence backends behind consistent masking.
// A store maps the canonical form of an input coordinate to the masked
// coordinate it produced, within a process (memory) or across runs (badger,
// redis).
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ManuGH/geoanonymizer/spatial"
	"github.com/ManuGH/geoanonymizer/spatial/mask"
)

// Store is a closable mask.Store.
type Store interface {
	mask.Store
	Close() error
}

// Maintainer is implemented by backends with periodic upkeep, such as
// badger's value-log garbage collection.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// record is the stored form of a masked point. Altitude is a pointer so
// 2D points round-trip without inventing a zero altitude.
type record struct {
	Lat float64  `json:"lat"`
	Lon float64  `json:"lon"`
	Alt *float64 `json:"alt,omitempty"`
}

func encodePoint(p spatial.Point) ([]byte, error) {
	rec := record{Lat: p.Lat, Lon: p.Lon}
	if p.HasAlt {
		alt := p.Alt
		rec.Alt = &alt
	}
	return json.Marshal(rec)
}

func decodePoint(data []byte) (spatial.Point, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return spatial.Point{}, fmt.Errorf("decode stored point: %w", err)
	}
	if rec.Alt != nil {
		return spatial.NewWithAlt(rec.Lat, rec.Lon, *rec.Alt), nil
	}
	return spatial.New(rec.Lat, rec.Lon), nil
}
