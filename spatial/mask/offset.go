// SPDX-License-Identifier: MIT

package mask

import (
	"context"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// Offset displaces every point by the same vector, in decimal degrees for
// the horizontal axes and meters for altitude. The shifted coordinate is
// normalized, so offsets crossing a pole or the date line wrap around
// instead of leaving the valid range.
//
// A fixed offset preserves all relative distances between points, which
// makes it the weakest masking technique: a single re-identified point
// betrays the whole set. It is mainly useful chained before a randomized
// strategy.
type Offset struct {
	DLat float64
	DLon float64
	DAlt float64
}

func (o Offset) Apply(_ context.Context, p spatial.Point) (spatial.Point, error) {
	p.Lat += o.DLat
	p.Lon += o.DLon
	if p.HasAlt {
		p.Alt += o.DAlt
	}
	return spatial.Normalize(p), nil
}
