package catalog

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/spectral"
)

const sampleCSV = `path,label,dataset,split,frequency_range
a.wav,Piano,nsynth,train,midrange
/abs/b.wav,Cello,openmic,test,
sub/c.wav,Drums,medley,train,
`

func TestReadResolvesPathsAndKeepsExtras(t *testing.T) {
	c, err := Read(strings.NewReader(sampleCSV), "/data/cat")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("rows=%d want 3", c.Len())
	}
	a := c.At(0)
	if a.Location != filepath.Clean("/data/cat/a.wav") || a.Path != "a.wav" {
		t.Fatalf("unexpected row 0: %+v", a)
	}
	if !a.HasRange || a.FrequencyRange != spectral.Midrange {
		t.Fatalf("row 0 range not parsed: %+v", a)
	}
	if c.At(1).Location != "/abs/b.wav" {
		t.Fatalf("absolute path rewritten: %s", c.At(1).Location)
	}
	if c.At(2).Extra["split"] != "train" {
		t.Fatalf("extra column lost: %+v", c.At(2).Extra)
	}
	if !c.NeedsAnnotation() {
		t.Fatalf("expected rows needing annotation")
	}
	if got := c.Labels(); len(got) != 3 || got[0] != "Piano" {
		t.Fatalf("labels=%v", got)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing label column", "path,dataset\na.wav,x\n"},
		{"empty path", "path,label\n,Piano\n"},
		{"empty label", "path,label\na.wav,\n"},
		{"bad band", "path,label,frequency_range\na.wav,Piano,ultrasonic\n"},
		{"duplicate column", "path,label,path\na.wav,Piano,b.wav\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tc.data), "/x"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c, err := Read(strings.NewReader(sampleCSV), dir)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	path := filepath.Join(dir, "catalog.csv")
	if err := c.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Len() != c.Len() {
		t.Fatalf("rows=%d want %d", back.Len(), c.Len())
	}
	for i := 0; i < c.Len(); i++ {
		a, b := c.At(i), back.At(i)
		if a.Path != b.Path || a.Label != b.Label || a.Dataset != b.Dataset || a.HasRange != b.HasRange || a.Extra["split"] != b.Extra["split"] {
			t.Fatalf("row %d differs: %+v vs %+v", i, a, b)
		}
	}
	if back.At(0).Location != filepath.Join(dir, "a.wav") {
		t.Fatalf("location=%s", back.At(0).Location)
	}
}

func TestWriteHeaderOrder(t *testing.T) {
	c := New("", []SourceClip{{Path: "a.wav", Label: "Piano", FrequencyRange: spectral.Bass, HasRange: true, Extra: map[string]string{"z": "1", "m": "2"}}})
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "path,label,dataset,frequency_range,m,z" {
		t.Fatalf("header=%q", lines[0])
	}
	if lines[1] != "a.wav,Piano,,bass,2,1" {
		t.Fatalf("row=%q", lines[1])
	}
}

func TestAnnotateDropsFailures(t *testing.T) {
	c, err := Read(strings.NewReader(sampleCSV), "/data")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var calls atomic.Int32
	fn := func(ctx context.Context, clip SourceClip) (spectral.Band, error) {
		calls.Add(1)
		if clip.Label == "Cello" {
			return 0, errors.New("unreadable")
		}
		return spectral.Bass, nil
	}
	var progressed atomic.Int32
	out, stats, err := Annotate(context.Background(), c, fn, AnnotateOptions{Workers: 2, Progress: func() { progressed.Add(1) }})
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if calls.Load() != 2 || progressed.Load() != 2 {
		t.Fatalf("expected 2 classifications, got calls=%d progress=%d", calls.Load(), progressed.Load())
	}
	if stats.Classified != 1 || stats.Dropped != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if out.Len() != 2 || out.NeedsAnnotation() {
		t.Fatalf("unexpected annotated catalog: len=%d", out.Len())
	}
	if out.At(0).FrequencyRange != spectral.Midrange || out.At(1).FrequencyRange != spectral.Bass {
		t.Fatalf("unexpected bands: %s %s", out.At(0).FrequencyRange, out.At(1).FrequencyRange)
	}
	if c.Len() != 3 || c.At(2).HasRange {
		t.Fatalf("input catalog was modified")
	}
}

func TestAnnotateCanceled(t *testing.T) {
	c, err := Read(strings.NewReader(sampleCSV), "/data")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fn := func(ctx context.Context, clip SourceClip) (spectral.Band, error) { return spectral.Bass, nil }
	if _, _, err := Annotate(ctx, c, fn, AnnotateOptions{Workers: 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClassifyAudio(t *testing.T) {
	dir := t.TempDir()
	sr := 22050
	x := make([]float64, sr/2)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/float64(sr))
	}
	if err := audiofile.WriteMonoWAV(filepath.Join(dir, "tone.wav"), x, sr); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	c := New(dir, []SourceClip{{Path: "tone.wav", Label: "Flute"}, {Path: "gone.wav", Label: "Oboe"}})
	out, stats, err := Annotate(context.Background(), c, ClassifyAudio(sr), AnnotateOptions{})
	if err != nil {
		t.Fatalf("Annotate: %v", err)
	}
	if stats.Dropped != 1 || out.Len() != 1 {
		t.Fatalf("stats=%+v len=%d", stats, out.Len())
	}
	if out.At(0).FrequencyRange != spectral.Midrange {
		t.Fatalf("band=%s want midrange", out.At(0).FrequencyRange)
	}
	if _, err := os.Stat(filepath.Join(dir, "tone.wav")); err != nil {
		t.Fatalf("fixture missing: %v", err)
	}
}
