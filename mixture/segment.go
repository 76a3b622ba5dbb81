package mixture

import (
	"math/rand"

	"github.com/cwbudde/algo-mixgen/analysis"
)

// ExtractSegment returns a window of frames samples from x. Sources no
// longer than frames are returned unchanged. Otherwise up to attempts random
// offsets are tried until the window's peak exceeds threshold; if none does,
// the last window tried is returned.
func ExtractSegment(rng *rand.Rand, x []float64, frames int, threshold float64, attempts int) []float64 {
	if len(x) <= frames {
		return x
	}
	if attempts < 1 {
		attempts = 1
	}
	var seg []float64
	for i := 0; i < attempts; i++ {
		start := rng.Intn(len(x) - frames + 1)
		seg = x[start : start+frames]
		if !analysis.IsSilent(seg, threshold) {
			break
		}
	}
	return seg
}
