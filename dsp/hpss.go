package dsp

import (
	"math"
	"math/cmplx"
	"sort"
)

// HPSSConfig controls harmonic/percussive separation.
type HPSSConfig struct {
	FFTSize int
	Hop     int
	Kernel  int     // median filter length, odd
	Power   float64 // soft mask exponent
}

// DefaultHPSSConfig returns a 2048/512 STFT with 31-bin median kernels.
func DefaultHPSSConfig() HPSSConfig {
	return HPSSConfig{
		FFTSize: 2048,
		Hop:     512,
		Kernel:  31,
		Power:   2.0,
	}
}

// HPSS splits x into harmonic and percussive components by median filtering
// the STFT magnitude across time (harmonic) and across frequency
// (percussive), then applying soft masks to the complex spectrum.
func HPSS(x []float64, cfg HPSSConfig) (harmonic []float64, percussive []float64, err error) {
	if len(x) == 0 {
		return nil, nil, nil
	}
	st, err := NewSTFT(cfg.FFTSize, cfg.Hop)
	if err != nil {
		return nil, nil, err
	}
	kernel := cfg.Kernel
	if kernel < 1 {
		kernel = 1
	}
	if kernel%2 == 0 {
		kernel++
	}

	spec := st.Forward(x)
	frames := len(spec)
	bins := st.Bins()
	mag := make([][]float64, frames)
	for t := range spec {
		mag[t] = make([]float64, bins)
		for k, c := range spec[t] {
			mag[t][k] = cmplx.Abs(c)
		}
	}

	half := kernel / 2
	scratch := make([]float64, 0, kernel)
	harmMed := make([][]float64, frames)
	percMed := make([][]float64, frames)
	for t := 0; t < frames; t++ {
		harmMed[t] = make([]float64, bins)
		percMed[t] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			scratch = scratch[:0]
			for tt := t - half; tt <= t+half; tt++ {
				if tt >= 0 && tt < frames {
					scratch = append(scratch, mag[tt][k])
				}
			}
			harmMed[t][k] = median(scratch)

			scratch = scratch[:0]
			for kk := k - half; kk <= k+half; kk++ {
				if kk >= 0 && kk < bins {
					scratch = append(scratch, mag[t][kk])
				}
			}
			percMed[t][k] = median(scratch)
		}
	}

	harmSpec := make([][]complex128, frames)
	percSpec := make([][]complex128, frames)
	for t := 0; t < frames; t++ {
		harmSpec[t] = make([]complex128, bins)
		percSpec[t] = make([]complex128, bins)
		for k := 0; k < bins; k++ {
			mh, mp := softMasks(harmMed[t][k], percMed[t][k], cfg.Power)
			harmSpec[t][k] = spec[t][k] * complex(mh, 0)
			percSpec[t][k] = spec[t][k] * complex(mp, 0)
		}
	}

	harmonic = st.Inverse(harmSpec, len(x))
	percussive = st.Inverse(percSpec, len(x))
	return harmonic, percussive, nil
}

// Harmonic returns the harmonic component of x.
func Harmonic(x []float64) ([]float64, error) {
	h, _, err := HPSS(x, DefaultHPSSConfig())
	return h, err
}

// Percussive returns the percussive component of x.
func Percussive(x []float64) ([]float64, error) {
	_, p, err := HPSS(x, DefaultHPSSConfig())
	return p, err
}

func softMasks(h float64, p float64, power float64) (float64, float64) {
	z := h
	if p > z {
		z = p
	}
	if z < 1e-20 {
		return 0, 0
	}
	hp := pow(h/z, power)
	pp := pow(p/z, power)
	den := hp + pp
	return hp / den, pp / den
}

func pow(x float64, p float64) float64 {
	if p == 2 {
		return x * x
	}
	return math.Pow(x, p)
}

func median(x []float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	sort.Float64s(x)
	if n%2 == 1 {
		return x[n/2]
	}
	return 0.5 * (x[n/2-1] + x[n/2])
}
