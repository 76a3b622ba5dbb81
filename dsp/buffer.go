package dsp

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/signal"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// Clone returns a copy of x.
func Clone(x []float64) []float64 {
	return append([]float64(nil), x...)
}

// Scale returns x multiplied by g.
func Scale(x []float64, g float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

// AddInto accumulates src into dst sample by sample over the shorter length.
func AddInto(dst []float64, src []float64) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] += src[i]
	}
}

// Fit returns a slice of exactly n samples: x truncated when longer, tiled
// (repeated and truncated) when shorter. An empty x yields silence.
func Fit(x []float64, n int) []float64 {
	out := make([]float64, n)
	if len(x) == 0 || n <= 0 {
		return out
	}
	for pos := 0; pos < n; pos += len(x) {
		copy(out[pos:], x)
	}
	return out
}

// PeakNormalize scales x so that max(|x|) == 1. It reports false and returns
// a copy when x is silent.
func PeakNormalize(x []float64) ([]float64, bool) {
	var peak float64
	for _, v := range x {
		if math.IsNaN(v) {
			return Clone(x), false
		}
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak <= 0 || math.IsInf(peak, 0) {
		return Clone(x), false
	}
	out, err := signal.Normalize(x, 1)
	if err != nil {
		return Clone(x), false
	}
	return out, true
}

// HannPeriodic returns a periodic Hann window of length n.
func HannPeriodic(n int) []float64 {
	return window.Generate(window.TypeHann, n, window.WithPeriodic())
}
