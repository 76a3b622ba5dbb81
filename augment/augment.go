// Package augment applies the randomized per-clip augmentation chain: genre
// shaping, speed variation, slice shuffling and noise injection.
package augment

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/algo-mixgen/dsp"
	"github.com/cwbudde/algo-mixgen/genre"
	"github.com/cwbudde/algo-mixgen/noise"
)

// Policy holds the augmentation probabilities and parameters.
type Policy struct {
	SpeedProbability float64
	SpeedMin         float64
	SpeedMax         float64

	SliceProbability float64
	Slices           int

	NoiseProbability float64
	NoiseSNRDB       float64
	NoiseColors      []noise.Color
}

// DefaultPolicy returns the stock augmentation probabilities and ranges.
func DefaultPolicy() Policy {
	return Policy{
		SpeedProbability: 0.5,
		SpeedMin:         0.9,
		SpeedMax:         1.1,
		SliceProbability: 0.3,
		Slices:           4,
		NoiseProbability: 0.5,
		NoiseSNRDB:       20,
		NoiseColors:      append([]noise.Color(nil), noise.Colors...),
	}
}

// Validate checks probabilities, ranges and the noise color list.
func (p *Policy) Validate() error {
	for _, pr := range []struct {
		name string
		v    float64
	}{
		{"speed_probability", p.SpeedProbability},
		{"slice_probability", p.SliceProbability},
		{"noise_probability", p.NoiseProbability},
	} {
		if pr.v < 0 || pr.v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %f", pr.name, pr.v)
		}
	}
	if p.SpeedMin <= 0 || p.SpeedMax < p.SpeedMin {
		return fmt.Errorf("speed range must satisfy 0 < min <= max, got [%f,%f]", p.SpeedMin, p.SpeedMax)
	}
	if p.Slices < 1 {
		return fmt.Errorf("slices must be >= 1")
	}
	if p.NoiseProbability > 0 && len(p.NoiseColors) == 0 {
		return fmt.Errorf("noise_colors must not be empty when noise_probability > 0")
	}
	return nil
}

// Applied records which optional steps ran on a clip.
type Applied struct {
	Speed  float64 // stretch rate, 0 when skipped
	Sliced bool
	Noise  noise.Color // empty when skipped
}

// Augmentor runs the augmentation chain. It is safe for concurrent use as
// long as each goroutine passes its own rng.
type Augmentor struct {
	policy Policy
}

// New validates p and returns an Augmentor that applies it.
func New(p Policy) (*Augmentor, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.NoiseColors = append([]noise.Color(nil), p.NoiseColors...)
	return &Augmentor{policy: p}, nil
}

// Policy returns the augmentor's policy.
func (a *Augmentor) Policy() Policy {
	return a.policy
}

// Apply runs the full chain on a copy of clip. The three gate draws are taken
// before any step runs so each step's outcome is independent of the others.
func (a *Augmentor) Apply(rng *rand.Rand, clip []float64, shaping genre.Shaping) ([]float64, Applied, error) {
	p := a.policy
	doSpeed := rng.Float64() < p.SpeedProbability
	doSlice := rng.Float64() < p.SliceProbability
	doNoise := rng.Float64() < p.NoiseProbability

	var applied Applied
	y, err := Shape(rng, clip, shaping)
	if err != nil {
		return nil, applied, fmt.Errorf("shape %s: %w", shaping, err)
	}
	if doSpeed {
		var rate float64
		y, rate, err = VarySpeed(rng, y, p.SpeedMin, p.SpeedMax)
		if err != nil {
			return nil, applied, fmt.Errorf("time stretch: %w", err)
		}
		applied.Speed = rate
	}
	if doSlice {
		y = SliceShuffle(rng, y, p.Slices)
		applied.Sliced = true
	}
	if doNoise {
		c := p.NoiseColors[rng.Intn(len(p.NoiseColors))]
		y = noise.Add(rng, y, c, p.NoiseSNRDB)
		applied.Noise = c
	}
	return y, applied, nil
}

// VarySpeed time-stretches x by a rate drawn uniformly from [lo, hi] and
// returns the stretched clip with the rate used.
func VarySpeed(rng *rand.Rand, x []float64, lo float64, hi float64) ([]float64, float64, error) {
	rate := lo + rng.Float64()*(hi-lo)
	y, err := dsp.TimeStretch(x, rate)
	return y, rate, err
}

// SliceShuffle splits x into n equal contiguous slices, dropping the
// remainder, and concatenates them in random order. Clips shorter than n
// samples are returned unchanged.
func SliceShuffle(rng *rand.Rand, x []float64, n int) []float64 {
	if n < 1 || len(x) < n {
		return dsp.Clone(x)
	}
	size := len(x) / n
	order := rng.Perm(n)
	out := make([]float64, 0, size*n)
	for _, s := range order {
		out = append(out, x[s*size:(s+1)*size]...)
	}
	return out
}
