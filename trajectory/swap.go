// SPDX-License-Identifier: MIT

package trajectory

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// SwapConfig parameterizes SwapLocations. K is the anonymity group size,
// TimeWindow and SpaceWindow bound how far apart in time and space (meters,
// great circle) locations may be to end up in the same group. Rand makes
// runs reproducible; nil uses the process-global generator.
type SwapConfig struct {
	K           int
	TimeWindow  time.Duration
	SpaceWindow float64
	Rand        *rand.Rand
}

// SwapLocations permutes locations between trajectories to achieve
// trajectory k-anonymity. Trajectories are visited in random order; each
// not yet swapped location is grouped with its K-1 nearest unswapped
// locations from K-1 other trajectories within the configured windows, and
// the group's coordinates are randomly reassigned among its members.
// Timestamps never move. Locations for which no full group exists are
// removed from the output.
//
// The input is not modified; output trajectories keep their order and IDs,
// possibly with fewer points.
func SwapLocations(trajectories []Trajectory, cfg SwapConfig) ([]Trajectory, error) {
	if err := validate(cfg.K, cfg.TimeWindow, cfg.SpaceWindow); err != nil {
		return nil, err
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

	for _, ti := range permInts(cfg.Rand, len(out)) {
		for pi := range out[ti].Points {
			target := ref{ti, pi}
			if swapped[target] || removed[target] {
				continue
			}
			pivot := out[ti].Points[pi]

			// Candidates within both windows, nearest first.
			type cand struct {
				r ref
				d float64
			}
			var cands []cand
			for _, r := range refs {
				if r.traj == ti || swapped[r] || removed[r] {
					continue
				}
				other := out[r.traj].Points[r.idx]
				if absDuration(other.Time.Sub(pivot.Time)) > cfg.TimeWindow {
					continue
				}
				d := spatial.Distance(pivot.Point, other.Point)
				if d > cfg.SpaceWindow {
					continue
				}
				cands = append(cands, cand{r, d})
			}
			sort.Slice(cands, func(i, j int) bool { return cands[i].d < cands[j].d })

			// One member per trajectory keeps the group k-anonymous.
			group := []ref{target}
			seen := map[int]bool{ti: true}
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

			coords := make([]spatial.Point, len(group))
			for i, r := range group {
				coords[i] = out[r.traj].Points[r.idx].Point
			}
			shuffle(cfg.Rand, len(coords), func(i, j int) {
				coords[i], coords[j] = coords[j], coords[i]
			})
			for i, r := range group {
				out[r.traj].Points[r.idx].Point = coords[i]
				swapped[r] = true
			}
		}
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
