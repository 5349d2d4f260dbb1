// SPDX-License-Identifier: MIT

package mask

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/geoanonymizer/spatial"
)

func TestLimitDigits(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		n    int
		want float64
	}{
		{"one decimal", 12.3456, 1, 12.3},
		{"one decimal carries", 123.456, 1, 123.5},
		{"two decimals", 12.3456, 2, 12.35},
		{"three decimals", 12.3456, 3, 12.346},
		{"three decimals exact", 123.456, 3, 123.456},
		{"zero keeps value", 12.3456, 0, 12.3456},
		{"tens", 12.3456, -1, 10},
		{"tens of larger value", 123.456, -1, 120},
		{"tens keeps leading digit", 65.4321, -1, 70},
		{"hundreds", 123.456, -2, 100},
		{"hundreds of larger value", 654.321, -2, 700},
		{"tens of hundreds", 654.321, -1, 650},
		{"step above value backs off", 12.3456, -2, 10},
		{"step far above value backs off", 12.3456, -3, 10},
		{"negative value keeps digits", -123.456, -1, -123.456},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, limitDigits(tt.v, tt.n), 1e-12)
		})
	}
}

func TestPrecisionApply(t *testing.T) {
	ctx := context.Background()

	got, err := Precision{Lat: 1, Lon: 2}.Apply(ctx, spatial.New(12.3456, 12.3456))
	require.NoError(t, err)
	assert.InDelta(t, 12.3, got.Lat, 1e-12)
	assert.InDelta(t, 12.35, got.Lon, 1e-12)
	assert.False(t, got.HasAlt)

	got, err = Precision{Lat: 1, Lon: 1, Alt: 1}.Apply(ctx, spatial.NewWithAlt(12.3456, 12.3456, 12.3456))
	require.NoError(t, err)
	assert.True(t, got.HasAlt)
	assert.InDelta(t, 12.3, got.Alt, 1e-12)

	// A zero digit count is a per-axis no-op.
	got, err = Precision{Lon: 1}.Apply(ctx, spatial.New(12.3456, 12.3456))
	require.NoError(t, err)
	assert.InDelta(t, 12.3456, got.Lat, 1e-12)
	assert.InDelta(t, 12.3, got.Lon, 1e-12)
}
