// SPDX-License-Identifier: MIT

package mask

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/ManuGH/geoanonymizer/spatial"
)

// Displace moves each point a sampled distance in a random direction.
//
// With Spherical unset the direction is a single angle in the horizontal
// plane and altitude is untouched. With Spherical set a second angle tilts
// the displacement vertically; the vertical component applies only to points
// that carry altitude.
//
// Distances are decimal degrees unless Meters is set, which converts the
// horizontal components using the flat-earth approximation (valid for the
// small displacements masking works with) and keeps the vertical component
// in meters. A sampled distance of zero returns the point unchanged and
// negative samples are reflected, so Gaussian samplers behave at their left
// tail.
type Displace struct {
	Distance  Sampler
	Spherical bool
	Meters    bool

	// Rand makes output reproducible. Instances with Rand set are bound to a
	// single goroutine; leave it nil to share the process-global source.
	Rand *rand.Rand
}

func (d Displace) Apply(_ context.Context, p spatial.Point) (spatial.Point, error) {
	if d.Distance == nil {
		return p, nil
	}
	dist := d.Distance.Sample(d.Rand)
	if dist == 0 {
		return p, nil
	}
	if dist < 0 {
		dist = -dist
	}

	var dLat, dLon, dAlt float64
	angle := uniform(d.Rand, 0, 2*math.Pi)
	if d.Spherical {
		tilt := uniform(d.Rand, 0, 2*math.Pi)
		dLat = math.Cos(angle) * math.Sin(tilt) * dist
		dLon = math.Sin(angle) * math.Sin(tilt) * dist
		dAlt = math.Cos(tilt) * dist
	} else {
		dLat = math.Cos(angle) * dist
		dLon = math.Sin(angle) * dist
	}

	if d.Meters {
		dLat /= spatial.MetersPerDegree
		dLon /= spatial.MetersPerDegree * math.Cos(p.Lat*math.Pi/180)
	}

	p.Lat += dLat
	p.Lon += dLon
	if p.HasAlt && d.Spherical {
		p.Alt += dAlt
	}
	return spatial.Normalize(p), nil
}

// OnCircle displaces by exactly radius in a random horizontal direction.
func OnCircle(radius float64) Displace {
	return Displace{Distance: Fixed(radius)}
}

// OnSphere displaces by exactly radius in a random three-dimensional
// direction.
func OnSphere(radius float64) Displace {
	return Displace{Distance: Fixed(radius), Spherical: true}
}

// WithinCircle displaces by a uniform random distance up to radius.
func WithinCircle(radius float64) Displace {
	return Displace{Distance: Uniform{Max: radius}}
}

// WithinSphere displaces by a uniform random distance up to radius in three
// dimensions.
func WithinSphere(radius float64) Displace {
	return Displace{Distance: Uniform{Max: radius}, Spherical: true}
}

// Donut displaces by a uniform random distance between inner and outer.
// Keeping inner above zero guarantees a minimum displacement, which plain
// within-circle masking cannot.
func Donut(inner, outer float64) Displace {
	return Displace{Distance: Uniform{Min: inner, Max: outer}}
}

// SphericalDonut is Donut with a three-dimensional direction.
func SphericalDonut(inner, outer float64) Displace {
	return Displace{Distance: Uniform{Min: inner, Max: outer}, Spherical: true}
}

// Gaussian displaces by a normally distributed distance.
func Gaussian(mean, stddev float64) Displace {
	return Displace{Distance: Gauss{Mean: mean, StdDev: stddev}}
}

// SphericalGaussian is Gaussian with a three-dimensional direction.
func SphericalGaussian(mean, stddev float64) Displace {
	return Displace{Distance: Gauss{Mean: mean, StdDev: stddev}, Spherical: true}
}

// BimodalGaussian displaces by a distance drawn between two Gaussian modes,
// a donut with soft edges.
func BimodalGaussian(innerMean, innerStdDev, outerMean, outerStdDev float64) Displace {
	return Displace{Distance: Bimodal{
		Inner: Gauss{Mean: innerMean, StdDev: innerStdDev},
		Outer: Gauss{Mean: outerMean, StdDev: outerStdDev},
	}}
}

// SphericalBimodalGaussian is BimodalGaussian with a three-dimensional
// direction.
func SphericalBimodalGaussian(innerMean, innerStdDev, outerMean, outerStdDev float64) Displace {
	return Displace{
		Distance: Bimodal{
			Inner: Gauss{Mean: innerMean, StdDev: innerStdDev},
			Outer: Gauss{Mean: outerMean, StdDev: outerStdDev},
		},
		Spherical: true,
	}
}
