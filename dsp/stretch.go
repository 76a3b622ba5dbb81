package dsp

import (
	"fmt"
	"math"
)

// StretchConfig controls WSOLA time stretching.
type StretchConfig struct {
	FrameSize int // analysis/synthesis frame length
	Tolerance int // max offset searched around the nominal analysis position
}

// DefaultStretchConfig returns a 1024-sample frame with a 256-sample search
// tolerance.
func DefaultStretchConfig() StretchConfig {
	return StretchConfig{
		FrameSize: 1024,
		Tolerance: 256,
	}
}

// TimeStretch changes the duration of x by 1/rate without changing its pitch
// using waveform-similarity overlap-add. rate > 1 shortens the signal.
func TimeStretch(x []float64, rate float64) ([]float64, error) {
	return TimeStretchWith(x, rate, DefaultStretchConfig())
}

// TimeStretchWith is TimeStretch with an explicit configuration. Signals
// shorter than four frames use a proportionally smaller frame.
func TimeStretchWith(x []float64, rate float64, cfg StretchConfig) ([]float64, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("stretch rate must be > 0, got %f", rate)
	}
	if len(x) == 0 {
		return nil, nil
	}
	outLen := int(math.Round(float64(len(x)) / rate))
	if outLen < 1 {
		outLen = 1
	}
	if rate == 1 {
		return Clone(x), nil
	}

	n := cfg.FrameSize
	if n > len(x)/4 {
		n = len(x) / 4
	}
	n &^= 1
	if n < 16 {
		// Too short to overlap-add meaningfully.
		return Fit(x, outLen), nil
	}
	tol := cfg.Tolerance
	if tol > n/2 {
		tol = n / 2
	}
	if tol < 0 {
		tol = 0
	}

	hs := n / 2
	ha := float64(hs) * rate
	win := HannPeriodic(n)
	acc := make([]float64, outLen+n)
	norm := make([]float64, outLen+n)
	maxStart := len(x) - n

	prev := 0
	for k := 0; k*hs < outLen; k++ {
		start := 0
		if k > 0 {
			nominal := int(math.Round(float64(k) * ha))
			start = bestOverlap(x, prev+hs, nominal, tol, hs)
		}
		if start > maxStart {
			start = maxStart
		}
		if start < 0 {
			start = 0
		}
		pos := k * hs
		for i := 0; i < n; i++ {
			acc[pos+i] += x[start+i] * win[i]
			norm[pos+i] += win[i]
		}
		prev = start
	}

	out := make([]float64, outLen)
	for i := range out {
		if norm[i] > 1e-6 {
			out[i] = acc[i] / norm[i]
		}
	}
	return out, nil
}

// bestOverlap returns the start in [nominal-tol, nominal+tol] whose first
// overlap samples correlate best with the natural continuation at target.
func bestOverlap(x []float64, target int, nominal int, tol int, overlap int) int {
	if target+overlap > len(x) {
		return nominal
	}
	lo := nominal - tol
	hi := nominal + tol
	if lo < 0 {
		lo = 0
	}
	if hi+overlap > len(x) {
		hi = len(x) - overlap
	}
	if lo > hi {
		return nominal
	}
	best := nominal
	bestScore := math.Inf(-1)
	ref := x[target : target+overlap]
	for s := lo; s <= hi; s++ {
		var sum float64
		cand := x[s : s+overlap]
		for i, v := range ref {
			sum += v * cand[i]
		}
		if sum > bestScore {
			bestScore = sum
			best = s
		}
	}
	return best
}
