// SPDX-License-Identifier: MIT

package geoanonymizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lat", "lat"},
		{"LAT", "lat"},
		{" Latitude ", "latitude"},
		{"\ufefflat", "lat"},
		{"ＬＡＴ", "lat"}, // fullwidth compatibility forms
		{"Straße", "strasse"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, canonical(tt.in), tt.in)
	}
}

func TestResolveColumn(t *testing.T) {
	header := []string{"\ufeffid", "Latitude", "LON"}

	idx, err := resolveColumn("latitude", header)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	idx, err = resolveColumn("lon", header)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = resolveColumn("id", header)
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "BOM on the first cell must not hide it")

	idx, err = resolveColumn("2", header)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = resolveColumn("5", header)
	assert.Error(t, err)
	_, err = resolveColumn("-1", header)
	assert.Error(t, err)
	_, err = resolveColumn("speed", header)
	assert.Error(t, err)
}

func TestDetectColumn(t *testing.T) {
	assert.Equal(t, 1, detectColumn(latNames, []string{"id", "lat", "lon"}))
	assert.Equal(t, 2, detectColumn(lonNames, []string{"id", "lat", "lng"}))
	assert.Equal(t, -1, detectColumn(latNames, []string{"id", "name"}))

	// Candidate priority beats header position: "latitude" wins over "y".
	assert.Equal(t, 1, detectColumn(latNames, []string{"y", "latitude"}))

	assert.Equal(t, 3, detectColumn(altNames, []string{"id", "lat", "lon", "Elevation"}))
}
