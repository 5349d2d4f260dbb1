// SPDX-License-Identifier: MIT

package trajectory

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// Reachability measures how far apart two locations are along an underlying
// network, such as a road graph. ReachLocations only groups locations whose
// path distance stays within the space window, so implementations decide
// what "reachable" means for a data set.
type Reachability interface {
	PathDistance(ctx context.Context, a, b spatial.Point) (float64, error)
}

// GreatCircle measures reachability as the direct great circle distance in
// meters. It is the fallback when no network model is available.
type GreatCircle struct{}

func (GreatCircle) PathDistance(_ context.Context, a, b spatial.Point) (float64, error) {
	return spatial.Distance(a, b), nil
}

// ReachConfig parameterizes ReachLocations. K is the number of distinct
// trajectories a group must draw from, TimeWindow and SpaceWindow bound the
// group, and Reach supplies the path distance (nil means GreatCircle).
type ReachConfig struct {
	K           int
	TimeWindow  time.Duration
	SpaceWindow float64
	Reach       Reachability
	Rand        *rand.Rand
}

// ReachLocations anonymizes each location independently, targeting location
// k-diversity instead of full trajectory k-anonymity: around every not yet
// swapped location a group of the K reachable nearest unswapped locations
// from K distinct trajectories is formed, the location's coordinates are
// exchanged with one random group member, and both count as swapped.
// Locations without a full group are removed. The relaxation keeps far more
// locations than SwapLocations when movement is constrained to a network.
//
// The input is not modified; output trajectories keep their order and IDs,
// possibly with fewer points.
func ReachLocations(ctx context.Context, trajectories []Trajectory, cfg ReachConfig) ([]Trajectory, error) {
	if err := validate(cfg.K, cfg.TimeWindow, cfg.SpaceWindow); err != nil {
		return nil, err
	}
	reach := cfg.Reach
	if reach == nil {
		reach = GreatCircle{}
	}
	out := cloneAll(trajectories)

	type ref struct {
		traj, idx int
	}
	var refs []ref
	for ti := range out {
		for pi := range out[ti].Points {
			refs = append(refs, ref{ti, pi})
		}
	}
	swapped := make(map[ref]bool, len(refs))
	removed := make(map[ref]bool)

	for _, ri := range permInts(cfg.Rand, len(refs)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		target := refs[ri]
		if swapped[target] || removed[target] {
			continue
		}
		pivot := out[target.traj].Points[target.idx]

		type cand struct {
			r ref
			d float64
		}
		var cands []cand
		for _, r := range refs {
			if r == target || swapped[r] || removed[r] {
				continue
			}
			other := out[r.traj].Points[r.idx]
			if absDuration(other.Time.Sub(pivot.Time)) > cfg.TimeWindow {
				continue
			}
			d, err := reach.PathDistance(ctx, pivot.Point, other.Point)
			if err != nil {
				return nil, fmt.Errorf("path distance: %w", err)
			}
			if d > cfg.SpaceWindow {
				continue
			}
			cands = append(cands, cand{r, d})
		}
		sort.Slice(cands, func(i, j int) bool { return cands[i].d < cands[j].d })

		group := []ref{target}
		seen := map[int]bool{target.traj: true}
		for _, c := range cands {
			if len(group) == cfg.K {
				break
			}
			if seen[c.r.traj] {
				continue
			}
			seen[c.r.traj] = true
			group = append(group, c.r)
		}
		if len(group) < cfg.K {
			removed[target] = true
			continue
		}
		if len(group) == 1 {
			swapped[target] = true
			continue
		}

		partner := group[1+intN(cfg.Rand, len(group)-1)]
		a := &out[target.traj].Points[target.idx]
		b := &out[partner.traj].Points[partner.idx]
		a.Point, b.Point = b.Point, a.Point
		swapped[target], swapped[partner] = true, true
	}

	if len(removed) > 0 {
		for ti := range out {
			kept := out[ti].Points[:0]
			for pi, p := range out[ti].Points {
				if !removed[ref{ti, pi}] {
					kept = append(kept, p)
				}
			}
			out[ti].Points = kept
		}
	}
	return out, nil
}
