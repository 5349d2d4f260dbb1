// SPDX-License-Identifier: MIT

// Package trajectory anonymizes movement traces with the permutation-based
// methods SwapLocations and ReachLocations from Domingo-Ferrer and
// Trujillo-Rasua, "Anonymization of trajectory data" (UNECE work session on
// statistical data confidentiality, 2011).
//
// Both methods guarantee that surviving locations are exchanged within
// groups built from at least K different trajectories; locations for which
// no such group exists are removed. The coordinates that survive are real
// observed coordinates, only their assignment to trajectories changes.
package trajectory

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ManuGH/geoanonymizer/spatial"
)

var (
	// ErrGroupSize reports a non-positive anonymity group size.
	ErrGroupSize = errors.New("anonymity group size must be positive")

	// ErrThreshold reports a negative time or space threshold.
	ErrThreshold = errors.New("thresholds must not be negative")
)

// Point is a location observed at a point in time.
type Point struct {
	Time time.Time
	spatial.Point
}

// Trajectory is one subject's ordered trace. The ID ties anonymized output
// back to its input and scopes the "different trajectories" requirement of
// the clustering steps.
type Trajectory struct {
	ID     string
	Points []Point
}

func validate(k int, rt time.Duration, rs float64) error {
	if k < 1 {
		return fmt.Errorf("%w, got %d", ErrGroupSize, k)
	}
	if rt < 0 || rs < 0 {
		return ErrThreshold
	}
	return nil
}

func cloneAll(trajectories []Trajectory) []Trajectory {
	out := make([]Trajectory, len(trajectories))
	for i, t := range trajectories {
		out[i] = Trajectory{ID: t.ID, Points: append([]Point(nil), t.Points...)}
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func permInts(r *rand.Rand, n int) []int {
	if r != nil {
		return r.Perm(n)
	}
	return rand.Perm(n)
}

func intN(r *rand.Rand, n int) int {
	if r != nil {
		return r.IntN(n)
	}
	return rand.IntN(n)
}

func shuffle(r *rand.Rand, n int, swap func(i, j int)) {
	if r != nil {
		r.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}
