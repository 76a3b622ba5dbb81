package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-mixgen/dsp"
)

// Config sets the STFT frame size and hop, in samples.
type Config struct {
	FFTSize int
	Hop     int
}

// DefaultConfig returns a 2048-point frame with a 512-sample hop.
func DefaultConfig() Config {
	return Config{
		FFTSize: 2048,
		Hop:     512,
	}
}

// Classifier computes band energies from a centered magnitude STFT.
// A Classifier is not safe for concurrent use; create one per goroutine.
type Classifier struct {
	cfg    Config
	plan   *algofft.PlanRealT[float64, complex128]
	window []float64
	frame  []float64
	spec   []complex128
}

// New validates cfg and prepares the FFT plan and buffers shared by every
// call on the returned Classifier.
func New(cfg Config) (*Classifier, error) {
	if cfg.FFTSize < 16 || cfg.FFTSize%2 != 0 {
		return nil, fmt.Errorf("fft size must be even and >= 16, got %d", cfg.FFTSize)
	}
	if cfg.Hop < 1 || cfg.Hop > cfg.FFTSize {
		return nil, fmt.Errorf("hop must be in [1,%d], got %d", cfg.FFTSize, cfg.Hop)
	}
	plan, err := algofft.NewPlanReal64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	return &Classifier{
		cfg:    cfg,
		plan:   plan,
		window: dsp.HannPeriodic(cfg.FFTSize),
		frame:  make([]float64, cfg.FFTSize),
		spec:   make([]complex128, cfg.FFTSize/2+1),
	}, nil
}

// Energies returns the summed STFT magnitude of x in each band, indexed by Band.
func (c *Classifier) Energies(x []float64, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}
	numBins := c.cfg.FFTSize/2 + 1
	nyquist := float64(sampleRate) / 2

	// Sum magnitude per bin over all frames first, then fold into bands.
	binSum := make([]float64, numBins)
	pad := c.cfg.FFTSize / 2
	frames := 1 + len(x)/c.cfg.Hop
	if len(x) == 0 {
		frames = 0
	}
	for t := 0; t < frames; t++ {
		start := t*c.cfg.Hop - pad
		for i := range c.frame {
			j := start + i
			if j >= 0 && j < len(x) {
				c.frame[i] = x[j] * c.window[i]
			} else {
				c.frame[i] = 0
			}
		}
		if err := c.plan.Forward(c.spec, c.frame); err != nil {
			return nil, fmt.Errorf("fft: %w", err)
		}
		for k := 0; k < numBins; k++ {
			binSum[k] += cmplx.Abs(c.spec[k])
		}
	}

	energies := make([]float64, len(ranges))
	for i, r := range ranges {
		lo := binIndex(r.LoHz, nyquist, numBins)
		hi := binIndex(r.HiHz, nyquist, numBins)
		for k := lo; k < hi; k++ {
			energies[i] += binSum[k]
		}
	}
	return energies, nil
}

// Classify returns the band holding the most energy. Ties go to the lower
// band, so a silent clip classifies as SubBass.
func (c *Classifier) Classify(x []float64, sampleRate int) (Band, error) {
	energies, err := c.Energies(x, sampleRate)
	if err != nil {
		return SubBass, err
	}
	return Dominant(energies), nil
}

// Dominant returns the index of the first maximum of energies as a Band.
func Dominant(energies []float64) Band {
	best := SubBass
	bestVal := math.Inf(-1)
	for i, e := range energies {
		if e > bestVal {
			bestVal = e
			best = Band(i)
		}
	}
	return best
}

// Classify is a convenience wrapper using DefaultConfig.
func Classify(x []float64, sampleRate int) (Band, error) {
	c, err := New(DefaultConfig())
	if err != nil {
		return SubBass, err
	}
	return c.Classify(x, sampleRate)
}

func binIndex(hz float64, nyquist float64, numBins int) int {
	k := int(math.Floor(hz / nyquist * float64(numBins)))
	if k < 0 {
		return 0
	}
	if k > numBins {
		return numBins
	}
	return k
}
