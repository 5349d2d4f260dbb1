// SPDX-License-Identifier: MIT

package mask

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec string
		want Strategy
	}{
		{"none", None},
		{"identity", None},
		{"", None},
		{"round:2", Precision{Lat: 2, Lon: 2, Alt: 2}},
		{"round:1,2", Precision{Lat: 1, Lon: 2}},
		{"round:1,2,-1", Precision{Lat: 1, Lon: 2, Alt: -1}},
		{"offset:1.5,-2", Offset{DLat: 1.5, DLon: -2}},
		{"offset:1,2,30", Offset{DLat: 1, DLon: 2, DAlt: 30}},
		{"circle", Displace{Distance: Fixed(0)}},
		{"circle:0.5", Displace{Distance: Fixed(0.5)}},
		{"sphere:2", Displace{Distance: Fixed(2), Spherical: true}},
		{"within-circle:1", Displace{Distance: Uniform{Max: 1}}},
		{"within-sphere:1", Displace{Distance: Uniform{Max: 1}, Spherical: true}},
		{"donut", Displace{Distance: Uniform{Min: 0.5, Max: 1}}},
		{"donut:0.2,0.8", Displace{Distance: Uniform{Min: 0.2, Max: 0.8}}},
		{"sphere-donut:1,2", Displace{Distance: Uniform{Min: 1, Max: 2}, Spherical: true}},
		{"gauss", Displace{Distance: Gauss{Mean: 1, StdDev: 1}}},
		{"gauss:2,0.5", Displace{Distance: Gauss{Mean: 2, StdDev: 0.5}}},
		{"sphere-gauss:2,0.5", Displace{Distance: Gauss{Mean: 2, StdDev: 0.5}, Spherical: true}},
		{"bimodal", Displace{Distance: Bimodal{Inner: Gauss{Mean: 1, StdDev: 1}, Outer: Gauss{Mean: 2, StdDev: 1}}}},
		{"bimodal:1,0.1,3,0.2", Displace{Distance: Bimodal{Inner: Gauss{Mean: 1, StdDev: 0.1}, Outer: Gauss{Mean: 3, StdDev: 0.2}}}},
		{"sphere-bimodal", Displace{Distance: Bimodal{Inner: Gauss{Mean: 1, StdDev: 1}, Outer: Gauss{Mean: 2, StdDev: 1}}, Spherical: true}},
		{"geohash:6", GeohashSnap{Length: 6}},
		{"cell:13", CellSnap{Level: 13}},
		{"circle:250m", Displace{Distance: Fixed(250), Meters: true}},
		{"donut:50m,200m", Displace{Distance: Uniform{Min: 50, Max: 200}, Meters: true}},
		{"Round:2", Precision{Lat: 2, Lon: 2, Alt: 2}},
		{" circle : 1 ", Displace{Distance: Fixed(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChain(t *testing.T) {
	got, err := Parse("offset:1,1+round:2")
	require.NoError(t, err)
	want := Chain(Offset{DLat: 1, DLon: 1}, Precision{Lat: 2, Lon: 2, Alt: 2})
	assert.Equal(t, want, got)
}

func TestParseErrors(t *testing.T) {
	for _, spec := range []string{"bogus", "round-trip", "donuts"} {
		_, err := Parse(spec)
		assert.ErrorIs(t, err, ErrUnknownStrategy, spec)
	}

	bad := []string{
		"round",
		"round:1,2,3,4",
		"round:x",
		"offset:1",
		"circle:abc",
		"donut:1,2,3",
		"donut:50m,200",
		"geohash",
		"geohash:1,2",
		"cell:one",
		"offset:1,2+bogus",
	}
	for _, spec := range bad {
		_, err := Parse(spec)
		assert.Error(t, err, spec)
	}
}

func TestWithRand(t *testing.T) {
	s, err := Parse("donut:50m,200m+round:4")
	require.NoError(t, err)
	r := testRand(11)
	seeded := WithRand(s, r)

	stages, ok := seeded.(chain)
	require.True(t, ok)
	d, ok := stages[0].(Displace)
	require.True(t, ok)
	assert.Same(t, r, d.Rand)
	assert.Equal(t, Strategy(Precision{Lat: 4, Lon: 4, Alt: 4}), stages[1])

	// Seeding returns a copy and leaves the parsed strategy untouched.
	orig := s.(chain)[0].(Displace)
	assert.Nil(t, orig.Rand)

	inner := WithinCircle(1)
	c := WithRand(Consistent{Inner: inner, Store: newMapStore()}, r).(Consistent)
	assert.Same(t, r, c.Inner.(Displace).Rand)
}

func TestSpecsCoverParser(t *testing.T) {
	for _, sp := range Specs() {
		name, _, _ := strings.Cut(sp.Form, "[")
		name, _, _ = strings.Cut(name, ":")
		_, err := Parse(name)
		assert.NotErrorIs(t, err, ErrUnknownStrategy, sp.Form)
	}
}
