package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFT is a centered short-time Fourier transform with a periodic Hann
// window. Frames are zero-padded by Size/2 on both ends of the signal.
// An STFT is not safe for concurrent use.
type STFT struct {
	Size int
	Hop  int

	fft    *fourier.FFT
	window []float64
	frame  []float64
}

// NewSTFT creates a transform with the given FFT size and hop.
func NewSTFT(size int, hop int) (*STFT, error) {
	if size < 4 || size%2 != 0 {
		return nil, fmt.Errorf("stft size must be even and >= 4, got %d", size)
	}
	if hop < 1 || hop > size {
		return nil, fmt.Errorf("stft hop must be in [1,%d], got %d", size, hop)
	}
	return &STFT{
		Size:   size,
		Hop:    hop,
		fft:    fourier.NewFFT(size),
		window: HannPeriodic(size),
		frame:  make([]float64, size),
	}, nil
}

// Bins returns the number of frequency bins per frame.
func (s *STFT) Bins() int {
	return s.Size/2 + 1
}

// Frames returns the number of frames produced for a signal of n samples.
func (s *STFT) Frames(n int) int {
	return 1 + n/s.Hop
}

// Forward returns the complex spectrum of each frame.
func (s *STFT) Forward(x []float64) [][]complex128 {
	pad := s.Size / 2
	frames := s.Frames(len(x))
	out := make([][]complex128, frames)
	for t := 0; t < frames; t++ {
		start := t*s.Hop - pad
		for i := 0; i < s.Size; i++ {
			j := start + i
			if j >= 0 && j < len(x) {
				s.frame[i] = x[j] * s.window[i]
			} else {
				s.frame[i] = 0
			}
		}
		out[t] = s.fft.Coefficients(nil, s.frame)
	}
	return out
}

// Inverse reconstructs a signal of length n from spec by weighted
// overlap-add.
func (s *STFT) Inverse(spec [][]complex128, n int) []float64 {
	pad := s.Size / 2
	total := s.Size + s.Hop*(len(spec)-1)
	if len(spec) == 0 {
		total = 0
	}
	acc := make([]float64, total)
	norm := make([]float64, total)
	scale := 1.0 / float64(s.Size)
	for t, coeffs := range spec {
		s.fft.Sequence(s.frame, coeffs)
		start := t * s.Hop
		for i := 0; i < s.Size; i++ {
			w := s.window[i]
			acc[start+i] += s.frame[i] * scale * w
			norm[start+i] += w * w
		}
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		j := i + pad
		if j >= total {
			break
		}
		if norm[j] > 1e-10 {
			out[i] = acc[j] / norm[j]
		}
	}
	return out
}
