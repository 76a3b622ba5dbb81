package mixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cwbudde/algo-mixgen/internal/audiofile"
)

func newFixtureDriver(t *testing.T, workers int, seed int64) (*Driver, string) {
	t.Helper()
	root := t.TempDir()
	cat := fiveClips(filepath.Join(root, "sources"))
	writeFixtures(t, cat, 8000, 6000)

	cfg := smallConfig()
	b, err := NewBuilder(cfg, cat, trioTable(t), defaultAugmentor(t), BuilderOptions{})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	dcfg := DefaultDriverConfig()
	dcfg.OutputDir = filepath.Join(root, "out")
	dcfg.Count = 10
	dcfg.Workers = workers
	dcfg.Seed = seed
	d, err := NewDriver(dcfg, b, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d, root
}

func TestDriverEndToEnd(t *testing.T) {
	d, _ := newFixtureDriver(t, 3, 7)
	var attempts atomic.Int32
	d.OnAttempt = func(int, Result, error) { attempts.Add(1) }

	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempts.Load() != 10 {
		t.Fatalf("attempts=%d want 10", attempts.Load())
	}
	if report.Requested != 10 || report.Produced != 10 || report.Failed() != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	rows, err := ReadMetadata(report.MetadataPath)
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("metadata rows=%d want 10", len(rows))
	}
	cfg := d.builder.Config()
	frames := cfg.Frames()
	for i, r := range rows {
		if r.Index != i || filepath.Base(r.Path) != "mixed_clip_"+strconv.Itoa(i)+".wav" {
			t.Fatalf("row %d: unexpected path %s", i, r.Path)
		}
		if r.Genre != "trio" {
			t.Fatalf("row %d: %+v", i, r)
		}
		// Every pair of fixture groups offers a fresh label, so the count
		// tracks the drawn group count.
		if n := len(r.Labels); n < 2 || n > 3 {
			t.Fatalf("row %d: %d labels %v, want 2..3", i, n, r.Labels)
		}
		seen := map[string]bool{}
		for _, l := range r.Labels {
			if l == "" || seen[l] {
				t.Fatalf("row %d: bad labels %v", i, r.Labels)
			}
			seen[l] = true
		}
		x, sr, err := audiofile.ReadWAVMono(r.Path)
		if err != nil {
			t.Fatalf("row %d: read: %v", i, err)
		}
		if sr != 8000 || len(x) != frames {
			t.Fatalf("row %d: sr=%d len=%d want 8000/%d", i, sr, len(x), frames)
		}
		if p := peakOf(x); p > 1+1e-6 || p < 0.9 {
			t.Fatalf("row %d: peak=%.6f", i, p)
		}
	}
}

func TestDriverReproducibleAcrossWorkerCounts(t *testing.T) {
	d1, _ := newFixtureDriver(t, 1, 99)
	d4, _ := newFixtureDriver(t, 4, 99)
	r1, err := d1.Run(context.Background())
	if err != nil {
		t.Fatalf("Run(1): %v", err)
	}
	r4, err := d4.Run(context.Background())
	if err != nil {
		t.Fatalf("Run(4): %v", err)
	}
	if len(r1.Results) != len(r4.Results) {
		t.Fatalf("produced %d vs %d", len(r1.Results), len(r4.Results))
	}
	for i := range r1.Results {
		a, b := r1.Results[i], r4.Results[i]
		if a.Index != b.Index || a.Genre != b.Genre || strings.Join(a.Labels, "|") != strings.Join(b.Labels, "|") {
			t.Fatalf("result %d differs: %+v vs %+v", i, a, b)
		}
		da, err := os.ReadFile(a.Path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		db, err := os.ReadFile(b.Path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(da) != string(db) {
			t.Fatalf("result %d audio differs between worker counts", i)
		}
	}
}

func TestDriverClearsOutputDir(t *testing.T) {
	d, _ := newFixtureDriver(t, 2, 1)
	stale := filepath.Join(d.Config().OutputDir, "stale", "old.wav")
	if err := os.MkdirAll(filepath.Dir(stale), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale output survived: %v", err)
	}
}

func TestDriverUnwritableOutputIsFatal(t *testing.T) {
	d, root := newFixtureDriver(t, 1, 1)
	blocker := filepath.Join(root, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d.cfg.OutputDir = filepath.Join(blocker, "out")
	_, err := d.Run(context.Background())
	var asset *AssetError
	if !errors.As(err, &asset) || asset.Op != OpWrite {
		t.Fatalf("expected write AssetError, got %v", err)
	}
}

func TestDriverAbortsAfterWriteFailures(t *testing.T) {
	root := t.TempDir()
	b, err := NewBuilder(smallConfig(), fiveClips("/data"), trioTable(t), quietAugmentor(t), BuilderOptions{
		Load:  memLoader(memClips(4000)),
		Write: func(string, []float64, int) error { return errors.New("read-only volume") },
	})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	dcfg := DefaultDriverConfig()
	dcfg.OutputDir = filepath.Join(root, "out")
	dcfg.Count = 10
	dcfg.Workers = 1
	d, err := NewDriver(dcfg, b, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	report, err := d.Run(context.Background())
	if !errors.Is(err, ErrTooManyWriteFailures) {
		t.Fatalf("expected ErrTooManyWriteFailures, got %v", err)
	}
	if report.WriteFailures != 3 || report.Produced != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := os.Stat(report.MetadataPath); err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
}

func TestDriverCountsFailuresByKind(t *testing.T) {
	root := t.TempDir()
	clips := memClips(4000)
	delete(clips, "flute_high.wav")
	b, err := NewBuilder(smallConfig(), fiveClips("/data"), trioTable(t), quietAugmentor(t), BuilderOptions{
		Load:  memLoader(clips),
		Write: func(string, []float64, int) error { return nil },
	})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	dcfg := DefaultDriverConfig()
	dcfg.OutputDir = filepath.Join(root, "out")
	dcfg.Count = 80
	d, err := NewDriver(dcfg, b, nil)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	report, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ReadFailures == 0 || report.Produced == 0 {
		t.Fatalf("expected a mix of read failures and successes: %+v", report)
	}
	if report.Produced+report.Failed() != report.Requested {
		t.Fatalf("accounting mismatch: %+v", report)
	}
	for i := 1; i < len(report.Results); i++ {
		if report.Results[i].Index <= report.Results[i-1].Index {
			t.Fatalf("results not in attempt order")
		}
	}
}

func TestDriverCanceled(t *testing.T) {
	d, _ := newFixtureDriver(t, 2, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := d.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Produced != 0 || report.Requested != 10 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDriverConfigValidate(t *testing.T) {
	cfg := DefaultDriverConfig()
	cfg.OutputDir = " "
	if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	cfg = DefaultDriverConfig()
	cfg.Count = -1
	if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestAttemptSeedStride(t *testing.T) {
	d, _ := newFixtureDriver(t, 1, 5)
	if d.AttemptSeed(0) != 5 || d.AttemptSeed(3) != 5+3*7919 {
		t.Fatalf("unexpected seeds: %d %d", d.AttemptSeed(0), d.AttemptSeed(3))
	}
}
