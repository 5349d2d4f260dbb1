// SPDX-License-Identifier: MIT

// Package mask implements geographic masking strategies: coordinate
// transformations that obscure precise locations while keeping the data
// useful for analysis. The techniques follow the geographic masking survey
// literature: precision limiting, fixed-vector displacement, random
// displacement on and within circles and spheres, donut masking, Gaussian
// and bimodal Gaussian displacement, plus grid snapping via geohash or S2
// cells.
//
// Randomized strategies draw from the process-global generator and are safe
// for concurrent use. Injecting a seeded *rand.Rand makes output
// reproducible but binds the instance to one goroutine.
package mask

import (
	"context"
	"math/rand/v2"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// Strategy transforms a coordinate into its anonymized counterpart.
type Strategy interface {
	Apply(ctx context.Context, p spatial.Point) (spatial.Point, error)
}

// None is the identity strategy.
var None Strategy = noneStrategy{}

type noneStrategy struct{}

func (noneStrategy) Apply(_ context.Context, p spatial.Point) (spatial.Point, error) {
	return p, nil
}

// Chain composes strategies left to right, so Chain(Donut(...), Precision{...})
// first displaces and then trims digits.
func Chain(strategies ...Strategy) Strategy {
	switch len(strategies) {
	case 0:
		return None
	case 1:
		return strategies[0]
	}
	return chain(strategies)
}

type chain []Strategy

func (c chain) Apply(ctx context.Context, p spatial.Point) (spatial.Point, error) {
	var err error
	for _, s := range c {
		if p, err = s.Apply(ctx, p); err != nil {
			return spatial.Point{}, err
		}
	}
	return p, nil
}

// Sampler draws a displacement distance. A nil *rand.Rand means the
// process-global generator.
type Sampler interface {
	Sample(r *rand.Rand) float64
}

// Fixed always samples the same distance.
type Fixed float64

func (f Fixed) Sample(*rand.Rand) float64 { return float64(f) }

// Uniform samples uniformly between Min and Max; the bounds may come in
// either order.
type Uniform struct {
	Min float64
	Max float64
}

func (u Uniform) Sample(r *rand.Rand) float64 {
	return uniform(r, u.Min, u.Max)
}

// Gauss samples a normally distributed distance.
type Gauss struct {
	Mean   float64
	StdDev float64
}

func (g Gauss) Sample(r *rand.Rand) float64 {
	return normal(r, g.Mean, g.StdDev)
}

// Bimodal draws one distance from each mode and samples uniformly between
// the two, approximating donut masking with soft edges.
type Bimodal struct {
	Inner Gauss
	Outer Gauss
}

func (b Bimodal) Sample(r *rand.Rand) float64 {
	return uniform(r, b.Inner.Sample(r), b.Outer.Sample(r))
}

func uniform(r *rand.Rand, min, max float64) float64 {
	if r != nil {
		return min + (max-min)*r.Float64()
	}
	return min + (max-min)*rand.Float64()
}

func normal(r *rand.Rand, mean, stddev float64) float64 {
	if r != nil {
		return mean + stddev*r.NormFloat64()
	}
	return mean + stddev*rand.NormFloat64()
}
