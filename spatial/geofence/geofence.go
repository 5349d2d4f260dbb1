// SPDX-License-Identifier: MIT

// Package geofence restricts anonymization to geographic regions. A fence
// holds one or more polygonal regions and a policy saying what happens to
// points inside versus outside: mask only one side, or drop one side and
// mask the other. Typical uses are masking only points within a sensitive
// area, or discarding everything outside the jurisdiction a data set is
// allowed to cover.
package geofence

import (
	"fmt"
	"strings"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// Region reports whether a point lies inside it.
type Region interface {
	Contains(p spatial.Point) bool
}

// Policy selects which side of the fence is masked or dropped.
type Policy int

const (
	// MaskInside masks points inside the fence and passes the rest through
	// unchanged.
	MaskInside Policy = iota
	// MaskOutside masks points outside the fence and passes the rest
	// through unchanged.
	MaskOutside
	// DropInside discards rows whose point lies inside the fence and masks
	// the rest.
	DropInside
	// DropOutside discards rows whose point lies outside the fence and
	// masks the rest.
	DropOutside
)

func (p Policy) String() string {
	switch p {
	case MaskInside:
		return "mask-inside"
	case MaskOutside:
		return "mask-outside"
	case DropInside:
		return "drop-inside"
	case DropOutside:
		return "drop-outside"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy converts the textual policy name; the empty string means
// MaskInside.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mask-inside":
		return MaskInside, nil
	case "mask-outside":
		return MaskOutside, nil
	case "drop-inside":
		return DropInside, nil
	case "drop-outside":
		return DropOutside, nil
	}
	return 0, fmt.Errorf("unknown fence policy %q", s)
}

// Action is the fence's verdict for a single point.
type Action int

const (
	// Mask applies the configured strategy to the point.
	Mask Action = iota
	// Keep passes the point through unchanged.
	Keep
	// Drop discards the point's row entirely.
	Drop
)

func (a Action) String() string {
	switch a {
	case Mask:
		return "mask"
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Fence combines regions with a policy. A nil fence, or one without
// regions, masks every point.
type Fence struct {
	Policy  Policy
	regions []Region
}

// New builds a fence from regions.
func New(policy Policy, regions ...Region) *Fence {
	return &Fence{Policy: policy, regions: regions}
}

// Contains reports whether any region contains p.
func (f *Fence) Contains(p spatial.Point) bool {
	if f == nil {
		return false
	}
	for _, r := range f.regions {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Decide returns the verdict for p under the fence's policy.
func (f *Fence) Decide(p spatial.Point) Action {
	if f == nil || len(f.regions) == 0 {
		return Mask
	}
	inside := f.Contains(p)
	switch f.Policy {
	case MaskInside:
		if inside {
			return Mask
		}
		return Keep
	case MaskOutside:
		if inside {
			return Keep
		}
		return Mask
	case DropInside:
		if inside {
			return Drop
		}
		return Mask
	case DropOutside:
		if inside {
			return Mask
		}
		return Drop
	}
	return Mask
}

// Ring adapts a spatial.Polygon into a Region.
type Ring struct {
	Polygon spatial.Polygon
}

func (r Ring) Contains(p spatial.Point) bool {
	return r.Polygon.Covers(p)
}
