// SPDX-License-Identifier: MIT

package trajectory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/geoanonymizer/spatial"
)

type fixedReach struct {
	d   float64
	err error
}

func (f fixedReach) PathDistance(context.Context, spatial.Point, spatial.Point) (float64, error) {
	return f.d, f.err
}

func TestReachLocationsSwapsPairs(t *testing.T) {
	ctx := context.Background()
	in := closeTrio()
	cfg := ReachConfig{K: 2, TimeWindow: 10 * time.Minute, SpaceWindow: 1000, Rand: testRand(1)}

	out, err := ReachLocations(ctx, in, cfg)
	require.NoError(t, err)

	assert.Equal(t, 9, pointCount(out))
	assert.Equal(t, coordMultiset(in), coordMultiset(out))
	for ti := range out {
		assert.Equal(t, in[ti].ID, out[ti].ID)
		for pi := range out[ti].Points {
			assert.Equal(t, in[ti].Points[pi].Time, out[ti].Points[pi].Time)
		}
	}
}

func TestReachLocationsNeedsDiversity(t *testing.T) {
	ctx := context.Background()
	in := []Trajectory{{ID: "solo", Points: []Point{
		tp(base, 48.2, 16.37),
		tp(base, 48.2001, 16.3701),
	}}}

	out, err := ReachLocations(ctx, in, ReachConfig{K: 2, TimeWindow: time.Hour, SpaceWindow: 1e6, Rand: testRand(2)})
	require.NoError(t, err)
	assert.Equal(t, 0, pointCount(out), "one trajectory cannot provide two-diverse groups")
}

func TestReachLocationsReachabilityGates(t *testing.T) {
	ctx := context.Background()
	in := closeTrio()

	// An unreachable network removes everything.
	cfg := ReachConfig{K: 2, TimeWindow: time.Hour, SpaceWindow: 1000, Reach: fixedReach{d: 1e9}, Rand: testRand(3)}
	out, err := ReachLocations(ctx, in, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, pointCount(out))

	boom := errors.New("graph unavailable")
	cfg.Reach = fixedReach{err: boom}
	_, err = ReachLocations(ctx, in, cfg)
	assert.ErrorIs(t, err, boom)
}

func TestReachLocationsDeterministic(t *testing.T) {
	ctx := context.Background()
	cfg := ReachConfig{K: 2, TimeWindow: 10 * time.Minute, SpaceWindow: 1000}

	cfg.Rand = testRand(7)
	first, err := ReachLocations(ctx, closeTrio(), cfg)
	require.NoError(t, err)

	cfg.Rand = testRand(7)
	second, err := ReachLocations(ctx, closeTrio(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestReachLocationsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReachLocations(ctx, closeTrio(), ReachConfig{K: 2, TimeWindow: time.Hour, SpaceWindow: 1e6})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReachLocationsValidation(t *testing.T) {
	ctx := context.Background()

	_, err := ReachLocations(ctx, nil, ReachConfig{K: 0})
	assert.ErrorIs(t, err, ErrGroupSize)

	_, err = ReachLocations(ctx, nil, ReachConfig{K: 2, SpaceWindow: -1})
	assert.ErrorIs(t, err, ErrThreshold)
}

func TestGreatCircle(t *testing.T) {
	a := spatial.New(0, 0)
	b := spatial.New(0, 1)
	d, err := GreatCircle{}.PathDistance(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, spatial.Distance(a, b), d)
}
