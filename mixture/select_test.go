package mixture

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/genre"
	"github.com/cwbudde/algo-mixgen/spectral"
)

func TestNewSelectorConfigErrors(t *testing.T) {
	tab := trioTable(t)
	cat := fiveClips("/data")
	tests := []struct {
		name     string
		min, max int
		cat      *catalog.Catalog
	}{
		{"min below one", 0, 3, cat},
		{"min above max", 4, 3, cat},
		{"unannotated", 1, 2, catalog.New("/data", []catalog.SourceClip{{Path: "a.wav", Label: "Piano"}})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSelector(tc.cat, tab, tc.min, tc.max)
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestSelectExactK(t *testing.T) {
	cat := catalog.New("/data", []catalog.SourceClip{
		{Path: "a.wav", Label: "Piano", FrequencyRange: spectral.Bass, HasRange: true},
		{Path: "b.wav", Label: "Cello", FrequencyRange: spectral.Midrange, HasRange: true},
		{Path: "c.wav", Label: "Flute", FrequencyRange: spectral.Presence, HasRange: true},
	})
	sel, err := NewSelector(cat, trioTable(t), 3, 3)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	for seed := int64(0); seed < 10; seed++ {
		got, err := sel.Select(rand.New(rand.NewSource(seed)), "trio")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("seed %d: selected %d clips, want 3", seed, len(got))
		}
	}
}

func TestSelectNoDuplicateLabelsOneClipPerBand(t *testing.T) {
	sel, err := NewSelector(fiveClips("/data"), trioTable(t), 1, 8)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if sel.Groups("trio") != 3 {
		t.Fatalf("groups=%d want 3", sel.Groups("trio"))
	}
	for seed := int64(0); seed < 200; seed++ {
		got, err := sel.Select(rand.New(rand.NewSource(seed)), "trio")
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if len(got) == 0 || len(got) > 3 {
			t.Fatalf("seed %d: selected %d clips", seed, len(got))
		}
		labels := map[string]bool{}
		bands := map[spectral.Band]bool{}
		for _, c := range got {
			if labels[c.Label] {
				t.Fatalf("seed %d: duplicate label %s", seed, c.Label)
			}
			if bands[c.FrequencyRange] {
				t.Fatalf("seed %d: duplicate band %s", seed, c.FrequencyRange)
			}
			labels[c.Label] = true
			bands[c.FrequencyRange] = true
		}
	}
}

func TestSelectSkipsGroupWithOnlyUsedLabels(t *testing.T) {
	cat := catalog.New("/data", []catalog.SourceClip{
		{Path: "a.wav", Label: "Piano", FrequencyRange: spectral.Bass, HasRange: true},
		{Path: "b.wav", Label: "Piano", FrequencyRange: spectral.Midrange, HasRange: true},
	})
	sel, err := NewSelector(cat, trioTable(t), 2, 2)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	got, err := sel.Select(rand.New(rand.NewSource(1)), "trio")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("selected %d clips, want 1", len(got))
	}
}

func TestSelectZeroEligible(t *testing.T) {
	tab, err := genre.NewTable([]genre.Profile{{Name: "brass", Instruments: []string{"Tuba"}}}, nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	sel, err := NewSelector(fiveClips("/data"), tab, 1, 3)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	got, err := sel.Select(rand.New(rand.NewSource(1)), "brass")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty selection, got %d clips err=%v", len(got), err)
	}
	if _, err := sel.Select(rand.New(rand.NewSource(1)), "polka"); err == nil {
		t.Fatalf("expected error for unknown genre")
	}

	b, err := NewBuilder(DefaultConfig(), fiveClips("/data"), tab, quietAugmentor(t), BuilderOptions{})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if _, err := b.Plan(rand.New(rand.NewSource(2))); !errors.Is(err, ErrSelection) {
		t.Fatalf("expected ErrSelection, got %v", err)
	}
}

func TestSelectUndersizedWhenFewGroups(t *testing.T) {
	sel, err := NewSelector(fiveClips("/data"), trioTable(t), 5, 8)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	got, err := sel.Select(rand.New(rand.NewSource(3)), "trio")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(got) == 0 || len(got) > 3 {
		t.Fatalf("selected %d clips, want 1..3", len(got))
	}
}
