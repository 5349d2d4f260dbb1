// SPDX-License-Identifier: MIT

package spatial

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr error
	}{
		{"zero point", Point{}, nil},
		{"boundary north pole", New(90, 0), nil},
		{"boundary south pole", New(-90, 0), nil},
		{"boundary date line", New(0, 180), nil},
		{"boundary date line west", New(0, -180), nil},
		{"with altitude", NewWithAlt(47.26, 11.39, 574), nil},
		{"latitude too high", New(90.0001, 0), ErrLatitudeRange},
		{"latitude too low", New(-91, 0), ErrLatitudeRange},
		{"longitude too high", New(0, 180.5), ErrLongitudeRange},
		{"longitude too low", New(0, -181), ErrLongitudeRange},
		{"nan latitude", New(math.NaN(), 0), ErrNotFinite},
		{"inf longitude", New(0, math.Inf(1)), ErrNotFinite},
		{"inf altitude", NewWithAlt(0, 0, math.Inf(-1)), ErrNotFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name             string
		in               Point
		wantLat, wantLon float64
	}{
		// 12.3456 + 100 wraps the way the original add_vector output did.
		{"latitude beyond pole wraps negative", New(112.3456, 112.3456), -67.6544, 112.3456},
		{"in range negative untouched", New(-87.6544, -87.6544), -87.6544, -87.6544},
		{"in range untouched", New(12.3456, 12.3456), 12.3456, 12.3456},
		{"boundary north untouched", New(90, 0), 90, 0},
		{"boundary south untouched", New(-90, 0), -90, 0},
		{"boundary date line untouched", New(0, 180), 0, 180},
		{"longitude wraps west", New(0, 190), 0, -170},
		{"longitude wraps east", New(0, -190), 0, 170},
		{"latitude far out", New(190, 0), 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.InDelta(t, tt.wantLat, got.Lat, 1e-9, "lat")
			assert.InDelta(t, tt.wantLon, got.Lon, 1e-9, "lon")
		})
	}
}

func TestNormalizeKeepsAltitude(t *testing.T) {
	got := Normalize(NewWithAlt(112.3456, 0, 112.3456))
	require.True(t, got.HasAlt)
	assert.Equal(t, 112.3456, got.Alt)
}

func TestPointString(t *testing.T) {
	assert.Equal(t, "12.3456,12.3456", New(12.3456, 12.3456).String())
	assert.Equal(t, "12.3456,12.3456,123.456", NewWithAlt(12.3456, 12.3456, 123.456).String())
	assert.Equal(t, "0,0", New(0, 0).String())
}
