// Package noise synthesizes colored Gaussian noise and mixes it into clips
// at a target signal-to-noise ratio.
package noise

import (
	"math"
	"math/bits"
	"math/rand"
	"strings"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-mixgen/analysis"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Color names a noise power spectrum.
type Color string

const (
	White    Color = "white"
	Pink     Color = "pink"
	Brownian Color = "brownian"
)

// Colors lists the supported colors.
var Colors = []Color{White, Pink, Brownian}

// Supported reports whether c is one of Colors.
func Supported(c Color) bool {
	_, ok := exponent(c)
	return ok
}

// ParseColor normalizes s to a Color. The result may be unsupported.
func ParseColor(s string) Color {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	if c == "brown" {
		return Brownian
	}
	return c
}

// exponent returns the spectral exponent beta of PSD ~ 1/f^beta.
func exponent(c Color) (float64, bool) {
	switch c {
	case White:
		return 0, true
	case Pink:
		return 1, true
	case Brownian:
		return 2, true
	}
	return 0, false
}

// Generate returns n samples of zero-mean, unit-variance noise of the given
// color. Unsupported colors yield nil and false.
func Generate(rng *rand.Rand, n int, c Color) ([]float64, bool) {
	beta, ok := exponent(c)
	if !ok {
		return nil, false
	}
	if n <= 0 {
		return []float64{}, true
	}
	if beta == 0 || n < 4 {
		x := make([]float64, n)
		for i := range x {
			x[i] = rng.NormFloat64()
		}
		return x, true
	}
	return standardize(powerLaw(rng, n, beta)), true
}

// powerLaw shapes Gaussian spectral coefficients by f^(-beta/2) and
// transforms back to the time domain. Synthesis runs at the next power of
// two so clip lengths with large prime factors stay O(n log n); the result
// is truncated to n.
func powerLaw(rng *rand.Rand, n int, beta float64) []float64 {
	m := nextPow2(n)
	bins := m/2 + 1
	coeff := make([]complex128, bins)
	for k := 1; k < bins; k++ {
		f := float64(k) / float64(m)
		// Only the slope matters; the output is standardized.
		s := float64(approx.FastExp(float32(-beta / 2 * math.Log(f))))
		re := rng.NormFloat64() * s
		im := rng.NormFloat64() * s
		if k == bins-1 {
			// Nyquist bin is real.
			re *= math.Sqrt2
			im = 0
		}
		coeff[k] = complex(re, im)
	}
	fft := fourier.NewFFT(m)
	return fft.Sequence(nil, coeff)[:n]
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func standardize(x []float64) []float64 {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	for i := range x {
		x[i] -= mean
	}
	sd := math.Sqrt(analysis.Power(x))
	if sd < 1e-20 {
		return x
	}
	for i := range x {
		x[i] /= sd
	}
	return x
}

// Scaled returns noise of len(reference) samples whose power sits snrDB below
// the power of reference. A silent reference yields silent noise.
func Scaled(rng *rand.Rand, reference []float64, c Color, snrDB float64) ([]float64, bool) {
	n, ok := Generate(rng, len(reference), c)
	if !ok {
		return nil, false
	}
	sigPower := analysis.Power(reference)
	noisePower := analysis.Power(n)
	if sigPower <= 0 || noisePower <= 0 {
		for i := range n {
			n[i] = 0
		}
		return n, true
	}
	target := sigPower / analysis.DBToPowerRatio(snrDB)
	g := math.Sqrt(target / noisePower)
	for i := range n {
		n[i] *= g
	}
	return n, true
}

// Add returns clip plus noise of color c at snrDB. An unsupported color
// returns an unmodified copy of clip.
func Add(rng *rand.Rand, clip []float64, c Color, snrDB float64) []float64 {
	out := append([]float64(nil), clip...)
	n, ok := Scaled(rng, clip, c, snrDB)
	if !ok {
		return out
	}
	for i := range out {
		out[i] += n[i]
	}
	return out
}
