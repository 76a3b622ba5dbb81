package dsp

import "github.com/cwbudde/algo-dsp/dsp/filter/biquad"

// NewPreEmphasis returns the first-order section y[n] = x[n] - coef*x[n-1].
func NewPreEmphasis(coef float64) *biquad.Section {
	return biquad.NewSection(biquad.Coefficients{B0: 1, B1: -coef})
}

// PreEmphasis applies y[n] = x[n] - coef*x[n-1]. The filter is primed with the
// linear extrapolation 2*x[0]-x[1] so the first output sample carries no
// step transient.
func PreEmphasis(x []float64, coef float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	prev := x[0]
	if len(x) > 1 {
		prev = 2*x[0] - x[1]
	}
	sec := NewPreEmphasis(coef)
	// In transposed form the first delay holds B1 times the previous input.
	sec.SetState([2]float64{-coef * prev, 0})
	out := make([]float64, len(x))
	sec.ProcessBlockTo(out, x)
	return out
}
