package mixture

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-mixgen/augment"
	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/genre"
	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/spectral"
)

func trioTable(t *testing.T) *genre.Table {
	t.Helper()
	tab, err := genre.NewTable([]genre.Profile{
		{Name: "trio", Instruments: []string{"Piano", "Cello", "Flute"}, Shaping: genre.ShapeNone},
	}, map[string]string{"Cello": "Strings"})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tab
}

func quietAugmentor(t *testing.T) *augment.Augmentor {
	t.Helper()
	p := augment.DefaultPolicy()
	p.SpeedProbability = 0
	p.SliceProbability = 0
	p.NoiseProbability = 0
	a, err := augment.New(p)
	if err != nil {
		t.Fatalf("augment.New: %v", err)
	}
	return a
}

func defaultAugmentor(t *testing.T) *augment.Augmentor {
	t.Helper()
	a, err := augment.New(augment.DefaultPolicy())
	if err != nil {
		t.Fatalf("augment.New: %v", err)
	}
	return a
}

// fiveClips is five rows spread over three labels and three bands.
func fiveClips(dir string) *catalog.Catalog {
	return catalog.New(dir, []catalog.SourceClip{
		{Path: "piano_low.wav", Label: "Piano", FrequencyRange: spectral.Bass, HasRange: true},
		{Path: "piano_mid.wav", Label: "Piano", FrequencyRange: spectral.Midrange, HasRange: true},
		{Path: "cello_low.wav", Label: "Cello", FrequencyRange: spectral.Bass, HasRange: true},
		{Path: "flute_high.wav", Label: "Flute", FrequencyRange: spectral.Brilliance, HasRange: true},
		{Path: "cello_mid.wav", Label: "Cello", FrequencyRange: spectral.Midrange, HasRange: true},
	})
}

func tone(freq float64, sr int, n int, amp float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sr))
	}
	return x
}

// writeFixtures writes a WAV file for every row of cat.
func writeFixtures(t *testing.T, cat *catalog.Catalog, sr int, n int) {
	t.Helper()
	for i := 0; i < cat.Len(); i++ {
		clip := cat.At(i)
		freq := 110.0 * float64(i+1)
		if err := audiofile.WriteMonoWAV(clip.Location, tone(freq, sr, n, 0.3), sr); err != nil {
			t.Fatalf("write fixture %s: %v", clip.Path, err)
		}
	}
}

// memLoader serves synthetic clips keyed by file name.
func memLoader(clips map[string][]float64) LoadFunc {
	return func(path string, sampleRate int) ([]float64, error) {
		x, ok := clips[filepath.Base(path)]
		if !ok {
			return nil, errMissing
		}
		return append([]float64(nil), x...), nil
	}
}

type loaderError string

func (e loaderError) Error() string { return string(e) }

const errMissing = loaderError("missing fixture")

func peakOf(x []float64) float64 {
	var p float64
	for _, v := range x {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}
