package mixture

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/genre"
	"github.com/cwbudde/algo-mixgen/spectral"
)

// group is the eligible rows of one frequency range, in catalog order.
type group struct {
	band  spectral.Band
	clips []catalog.SourceClip
}

// Selector picks frequency-diverse, label-unique clip sets per genre. The
// per-genre partitions are built once and only read afterwards, so one
// Selector may serve many goroutines.
type Selector struct {
	table      *genre.Table
	minGroups  int
	maxGroups  int
	partitions map[string][]group
}

// NewSelector partitions cat by genre eligibility and frequency range. Every
// row must already carry a frequency range.
func NewSelector(cat *catalog.Catalog, table *genre.Table, minGroups int, maxGroups int) (*Selector, error) {
	if minGroups < 1 {
		return nil, configErrorf("min_groups must be >= 1, got %d", minGroups)
	}
	if minGroups > maxGroups {
		return nil, configErrorf("min_groups (%d) must be <= max_groups (%d)", minGroups, maxGroups)
	}
	if table == nil || table.Len() == 0 {
		return nil, configErrorf("genre table is empty")
	}
	if cat == nil {
		return nil, configErrorf("catalog is nil")
	}
	if cat.NeedsAnnotation() {
		return nil, configErrorf("catalog has rows without a frequency range")
	}

	s := &Selector{
		table:      table,
		minGroups:  minGroups,
		maxGroups:  maxGroups,
		partitions: make(map[string][]group, table.Len()),
	}
	for _, p := range table.Profiles() {
		byBand := make([][]catalog.SourceClip, len(spectral.Bands()))
		for i := 0; i < cat.Len(); i++ {
			clip := cat.At(i)
			if !p.Eligible(clip.Label) || !clip.FrequencyRange.Valid() {
				continue
			}
			byBand[clip.FrequencyRange] = append(byBand[clip.FrequencyRange], clip)
		}
		var groups []group
		for b, clips := range byBand {
			if len(clips) > 0 {
				groups = append(groups, group{band: spectral.Band(b), clips: clips})
			}
		}
		s.partitions[p.Name] = groups
	}
	return s, nil
}

// Groups returns how many non-empty frequency groups genreName has.
func (s *Selector) Groups(genreName string) int {
	return len(s.partitions[genreName])
}

// Select draws k in [minGroups, maxGroups], samples min(k, groups) distinct
// frequency groups and picks one clip per group whose label is not yet used.
// Groups left with no unused label are skipped. A genre with no eligible
// rows yields an empty selection.
func (s *Selector) Select(rng *rand.Rand, genreName string) ([]catalog.SourceClip, error) {
	groups, ok := s.partitions[genreName]
	if !ok {
		return nil, fmt.Errorf("unknown genre %q", genreName)
	}
	k := s.minGroups + rng.Intn(s.maxGroups-s.minGroups+1)
	if len(groups) == 0 {
		return nil, nil
	}
	if k > len(groups) {
		k = len(groups)
	}

	used := make(map[string]bool, k)
	picked := make([]catalog.SourceClip, 0, k)
	candidates := make([]catalog.SourceClip, 0)
	for _, gi := range rng.Perm(len(groups))[:k] {
		candidates = candidates[:0]
		for _, clip := range groups[gi].clips {
			if !used[clip.Label] {
				candidates = append(candidates, clip)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		clip := candidates[rng.Intn(len(candidates))]
		used[clip.Label] = true
		picked = append(picked, clip)
	}
	return picked, nil
}
