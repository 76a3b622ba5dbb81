package bandcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/spectral"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache", "bands.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := openTemp(t)
	ctx := context.Background()
	key := Key{Location: "/x/a.wav", Size: 10, ModTimeNS: 99, SampleRate: 44100}
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, key, spectral.Presence); err != nil {
		t.Fatalf("Put: %v", err)
	}
	b, ok, err := c.Get(ctx, key)
	if err != nil || !ok || b != spectral.Presence {
		t.Fatalf("Get=%s,%v,%v", b, ok, err)
	}

	stale := key
	stale.ModTimeNS = 100
	if _, ok, _ := c.Get(ctx, stale); ok {
		t.Fatalf("modified file must miss")
	}
	if err := c.Put(ctx, stale, spectral.Bass); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if b, ok, _ := c.Get(ctx, stale); !ok || b != spectral.Bass {
		t.Fatalf("upsert failed: %s %v", b, ok)
	}
}

func TestWrapCachesResults(t *testing.T) {
	c := openTemp(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	calls := 0
	fn := func(ctx context.Context, clip catalog.SourceClip) (spectral.Band, error) {
		calls++
		return spectral.Midrange, nil
	}
	wrapped := c.Wrap(22050, fn)
	clip := catalog.SourceClip{Path: "a.wav", Location: path, Label: "Piano"}
	for i := 0; i < 3; i++ {
		b, err := wrapped(context.Background(), clip)
		if err != nil || b != spectral.Midrange {
			t.Fatalf("call %d: %s %v", i, b, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fn called %d times, want 1", calls)
	}
	if hits, misses := c.Stats(); hits != 2 || misses != 1 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, err := wrapped(context.Background(), clip); err != nil {
		t.Fatalf("wrapped: %v", err)
	}
	if calls != 2 {
		t.Fatalf("touched file should be reclassified, calls=%d", calls)
	}
}

func TestWrapPassesThroughErrors(t *testing.T) {
	c := openTemp(t)
	want := errors.New("boom")
	fn := func(ctx context.Context, clip catalog.SourceClip) (spectral.Band, error) {
		return spectral.SubBass, want
	}
	_, err := c.Wrap(44100, fn)(context.Background(), catalog.SourceClip{Location: "/does/not/exist.wav"})
	if !errors.Is(err, want) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bands.db")
	c, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	key := Key{Location: "/x/b.wav", Size: 1, ModTimeNS: 2, SampleRate: 8000}
	if err := c.Put(context.Background(), key, spectral.Brilliance); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	c2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()
	if b, ok, err := c2.Get(context.Background(), key); err != nil || !ok || b != spectral.Brilliance {
		t.Fatalf("Get after reopen: %s %v %v", b, ok, err)
	}
}
