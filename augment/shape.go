package augment

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/algo-mixgen/analysis"
	"github.com/cwbudde/algo-mixgen/dsp"
	"github.com/cwbudde/algo-mixgen/genre"
)

// Shape applies the genre shaping policy s to a copy of x. Only the
// wildcard policy consumes rng.
func Shape(rng *rand.Rand, x []float64, s genre.Shaping) ([]float64, error) {
	if len(x) == 0 {
		return []float64{}, nil
	}
	switch s {
	case genre.ShapeNone, "":
		return dsp.Clone(x), nil
	case genre.ShapeClassical:
		return expand(x, 1.0), nil
	case genre.ShapeRock:
		return dsp.PreEmphasis(x, 0.97), nil
	case genre.ShapeJazz:
		return dsp.PreEmphasis(expand(x, 0.5), 0.97), nil
	case genre.ShapeBlues:
		return dsp.PreEmphasis(x, 0.95), nil
	case genre.ShapeFolk:
		return dsp.Percussive(x)
	case genre.ShapeElectronic:
		y, _ := dsp.PeakNormalize(x)
		return y, nil
	case genre.ShapeWorld:
		return expand(x, 0.3), nil
	case genre.ShapeWildcard:
		switch rng.Intn(4) {
		case 0:
			return dsp.Clone(x), nil
		case 1:
			return dsp.PreEmphasis(x, 0.98), nil
		case 2:
			return expand(x, 0.2), nil
		default:
			y, _ := dsp.PeakNormalize(x)
			return y, nil
		}
	case genre.ShapePop:
		y, _ := dsp.PeakNormalize(x)
		y = dsp.PreEmphasis(y, 0.98)
		h, err := dsp.Harmonic(y)
		if err != nil {
			return nil, err
		}
		for i := range y {
			y[i] += 0.1 * h[i]
		}
		return dsp.PreEmphasis(y, 0.97), nil
	}
	return nil, fmt.Errorf("unknown shaping %q", s)
}

// expand scales x by 1 + amount*var(x).
func expand(x []float64, amount float64) []float64 {
	return dsp.Scale(x, 1+amount*analysis.Variance(x))
}
