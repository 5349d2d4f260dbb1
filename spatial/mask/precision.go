// SPDX-License-Identifier: MIT

package mask

import (
	"context"
	"math"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// Precision limits the number of decimal digits per axis. A digit count of
// zero leaves the axis untouched, positive counts keep that many decimal
// places, and negative counts round left of the decimal point. One decimal
// degree is roughly 111 km at the equator, so Precision{Lat: 2, Lon: 2}
// coarsens a coordinate to about a kilometer.
type Precision struct {
	Lat int
	Lon int
	Alt int
}

func (pr Precision) Apply(_ context.Context, p spatial.Point) (spatial.Point, error) {
	p.Lat = limitDigits(p.Lat, pr.Lat)
	p.Lon = limitDigits(p.Lon, pr.Lon)
	if p.HasAlt {
		p.Alt = limitDigits(p.Alt, pr.Alt)
	}
	return p, nil
}

// limitDigits rounds v to n decimal places. Negative n rounds to a power of
// ten instead, stepping back toward the decimal point until the step is
// smaller than v, so the most significant digit always survives:
// limitDigits(123.456, -1) is 120 and limitDigits(12.3456, -3) is 10, not 0.
func limitDigits(v float64, n int) float64 {
	switch {
	case n > 0:
		scale := math.Pow(10, float64(n))
		return math.Round(v*scale) / scale
	case n < 0:
		step := math.Pow(10, float64(-n))
		if step < v {
			return math.Round(v/step) * step
		}
		return limitDigits(v, n+1)
	}
	return v
}
