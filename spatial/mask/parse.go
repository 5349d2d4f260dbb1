// SPDX-License-Identifier: MIT

package mask

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// ErrUnknownStrategy is returned by Parse for an unrecognized strategy name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Spec describes one accepted strategy form for help output.
type Spec struct {
	Form    string `json:"form"`
	Summary string `json:"summary"`
}

// Specs lists every strategy form Parse accepts.
func Specs() []Spec {
	return []Spec{
		{"none", "pass coordinates through unchanged"},
		{"round:lat[,lon[,alt]]", "limit decimal digits per axis, negative counts round left of the decimal point"},
		{"offset:dlat,dlon[,dalt]", "shift every point by a fixed vector in degrees (altitude in meters)"},
		{"circle[:radius]", "displace by exactly radius in a random horizontal direction"},
		{"sphere[:radius]", "displace by exactly radius in a random 3D direction"},
		{"within-circle[:radius]", "displace up to radius in a random horizontal direction"},
		{"within-sphere[:radius]", "displace up to radius in a random 3D direction"},
		{"donut[:inner,outer]", "displace between inner and outer in a random horizontal direction"},
		{"sphere-donut[:inner,outer]", "displace between inner and outer in a random 3D direction"},
		{"gauss[:mean,stddev]", "displace by a normally distributed distance, horizontal direction"},
		{"sphere-gauss[:mean,stddev]", "displace by a normally distributed distance, 3D direction"},
		{"bimodal[:imean,istddev,omean,ostddev]", "displace between two Gaussian modes, horizontal direction"},
		{"sphere-bimodal[:imean,istddev,omean,ostddev]", "displace between two Gaussian modes, 3D direction"},
		{"geohash:length", "snap to the center of the enclosing geohash cell"},
		{"cell:level", "snap to the center of the enclosing S2 cell"},
	}
}

// Parse builds a strategy from its textual form, as listed by Specs.
// Distance arguments are decimal degrees unless suffixed with "m" for
// meters, e.g. "donut:50m,200m". Stages joined with "+" are chained left to
// right: "offset:1,1+round:2" shifts first and trims digits second.
func Parse(spec string) (Strategy, error) {
	parts := strings.Split(spec, "+")
	if len(parts) == 1 {
		return parseOne(parts[0])
	}
	stages := make([]Strategy, 0, len(parts))
	for _, part := range parts {
		s, err := parseOne(part)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return Chain(stages...), nil
}

// WithRand returns s with r injected into every randomized stage, making
// output reproducible. Stages without random state are returned unchanged.
func WithRand(s Strategy, r *rand.Rand) Strategy {
	switch v := s.(type) {
	case Displace:
		v.Rand = r
		return v
	case chain:
		out := make(chain, len(v))
		for i, stage := range v {
			out[i] = WithRand(stage, r)
		}
		return out
	case Consistent:
		v.Inner = WithRand(v.Inner, r)
		return v
	}
	return s
}

func parseOne(part string) (Strategy, error) {
	part = strings.TrimSpace(part)
	name, args, _ := strings.Cut(part, ":")
	name = strings.ToLower(strings.TrimSpace(name))

	switch name {
	case "", "none", "identity":
		return None, nil

	case "round":
		digits, err := parseInts(name, args, 1, 3)
		if err != nil {
			return nil, err
		}
		switch len(digits) {
		case 1:
			return Precision{Lat: digits[0], Lon: digits[0], Alt: digits[0]}, nil
		case 2:
			return Precision{Lat: digits[0], Lon: digits[1]}, nil
		default:
			return Precision{Lat: digits[0], Lon: digits[1], Alt: digits[2]}, nil
		}

	case "offset":
		vals, err := parseFloats(name, args, 2, 3)
		if err != nil {
			return nil, err
		}
		o := Offset{DLat: vals[0], DLon: vals[1]}
		if len(vals) > 2 {
			o.DAlt = vals[2]
		}
		return o, nil

	case "circle", "sphere":
		vals, meters, err := parseDistances(name, args, []float64{0})
		if err != nil {
			return nil, err
		}
		return Displace{Distance: Fixed(vals[0]), Spherical: name == "sphere", Meters: meters}, nil

	case "within-circle", "within-sphere":
		vals, meters, err := parseDistances(name, args, []float64{0})
		if err != nil {
			return nil, err
		}
		return Displace{Distance: Uniform{Max: vals[0]}, Spherical: name == "within-sphere", Meters: meters}, nil

	case "donut", "sphere-donut":
		vals, meters, err := parseDistances(name, args, []float64{0.5, 1})
		if err != nil {
			return nil, err
		}
		return Displace{Distance: Uniform{Min: vals[0], Max: vals[1]}, Spherical: name == "sphere-donut", Meters: meters}, nil

	case "gauss", "sphere-gauss":
		vals, meters, err := parseDistances(name, args, []float64{1, 1})
		if err != nil {
			return nil, err
		}
		return Displace{Distance: Gauss{Mean: vals[0], StdDev: vals[1]}, Spherical: name == "sphere-gauss", Meters: meters}, nil

	case "bimodal", "sphere-bimodal":
		vals, meters, err := parseDistances(name, args, []float64{1, 1, 2, 1})
		if err != nil {
			return nil, err
		}
		return Displace{
			Distance: Bimodal{
				Inner: Gauss{Mean: vals[0], StdDev: vals[1]},
				Outer: Gauss{Mean: vals[2], StdDev: vals[3]},
			},
			Spherical: name == "sphere-bimodal",
			Meters:    meters,
		}, nil

	case "geohash":
		n, err := parseInts(name, args, 1, 1)
		if err != nil {
			return nil, err
		}
		return GeohashSnap{Length: n[0]}, nil

	case "cell":
		n, err := parseInts(name, args, 1, 1)
		if err != nil {
			return nil, err
		}
		return CellSnap{Level: n[0]}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

func splitArgs(args string) []string {
	if strings.TrimSpace(args) == "" {
		return nil
	}
	toks := strings.Split(args, ",")
	for i, tok := range toks {
		toks[i] = strings.TrimSpace(tok)
	}
	return toks
}

func parseInts(name, args string, min, max int) ([]int, error) {
	toks := splitArgs(args)
	if len(toks) < min || len(toks) > max {
		return nil, arityError(name, len(toks), min, max)
	}
	vals := make([]int, len(toks))
	for i, tok := range toks {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: bad argument %q", name, tok)
		}
		vals[i] = v
	}
	return vals, nil
}

func parseFloats(name, args string, min, max int) ([]float64, error) {
	toks := splitArgs(args)
	if len(toks) < min || len(toks) > max {
		return nil, arityError(name, len(toks), min, max)
	}
	vals := make([]float64, len(toks))
	for i, tok := range toks {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("strategy %q: bad argument %q", name, tok)
		}
		vals[i] = v
	}
	return vals, nil
}

// parseDistances fills missing arguments from defaults and strips an
// optional "m" suffix marking meters. Mixing suffixed and bare values in one
// stage is rejected.
func parseDistances(name, args string, defaults []float64) ([]float64, bool, error) {
	vals := make([]float64, len(defaults))
	copy(vals, defaults)
	toks := splitArgs(args)
	if len(toks) == 0 {
		return vals, false, nil
	}
	if len(toks) > len(defaults) {
		return nil, false, arityError(name, len(toks), 0, len(defaults))
	}
	var meters, degrees bool
	for i, tok := range toks {
		if cut, ok := strings.CutSuffix(tok, "m"); ok {
			meters = true
			tok = cut
		} else {
			degrees = true
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, false, fmt.Errorf("strategy %q: bad argument %q", name, tok)
		}
		vals[i] = v
	}
	if meters && degrees {
		return nil, false, fmt.Errorf("strategy %q mixes meter and degree arguments", name)
	}
	return vals, meters, nil
}

func arityError(name string, got, min, max int) error {
	if min == max {
		return fmt.Errorf("strategy %q takes %d argument(s), got %d", name, min, got)
	}
	return fmt.Errorf("strategy %q takes %d to %d arguments, got %d", name, min, max, got)
}
