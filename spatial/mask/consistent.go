// SPDX-License-Identifier: MIT

package mask

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// ErrNoStore is returned when a Consistent strategy is missing its store or
// inner strategy.
var ErrNoStore = errors.New("consistent masking requires a store and an inner strategy")

// Store persists the mapping from original to masked coordinates. Keys are
// the canonical string form of the input point.
type Store interface {
	// Load returns the masked point previously saved for key. The second
	// return reports whether the key was present.
	Load(ctx context.Context, key string) (spatial.Point, bool, error)

	// Save records the masked point for key.
	Save(ctx context.Context, key string, p spatial.Point) error
}

// Consistent wraps a strategy so identical input coordinates always yield
// identical outputs, within a run and across runs sharing the same store.
// Randomized strategies otherwise scatter repeated coordinates, breaking
// joins between data sets anonymized separately.
type Consistent struct {
	Inner Strategy
	Store Store
}

func (c Consistent) Apply(ctx context.Context, p spatial.Point) (spatial.Point, error) {
	if c.Inner == nil || c.Store == nil {
		return spatial.Point{}, ErrNoStore
	}
	key := p.String()
	masked, ok, err := c.Store.Load(ctx, key)
	if err != nil {
		return spatial.Point{}, fmt.Errorf("load masked point: %w", err)
	}
	if ok {
		return masked, nil
	}
	masked, err = c.Inner.Apply(ctx, p)
	if err != nil {
		return spatial.Point{}, err
	}
	if err := c.Store.Save(ctx, key, masked); err != nil {
		return spatial.Point{}, fmt.Errorf("save masked point: %w", err)
	}
	return masked, nil
}
