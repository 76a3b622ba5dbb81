// Package genre holds the static genre → instrument tables and the shaping
// policy applied to clips mixed under each genre.
package genre

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Shaping names a deterministic (or, for Wildcard, randomly drawn) spectral
// and dynamic treatment applied before mixing.
type Shaping string

const (
	ShapeNone       Shaping = "none"
	ShapeClassical  Shaping = "classical"
	ShapeRock       Shaping = "rock"
	ShapeJazz       Shaping = "jazz"
	ShapeBlues      Shaping = "blues"
	ShapeFolk       Shaping = "folk"
	ShapeElectronic Shaping = "electronic"
	ShapeWorld      Shaping = "world"
	ShapeWildcard   Shaping = "wildcard"
	ShapePop        Shaping = "pop"
)

var shapings = map[Shaping]bool{
	ShapeNone:       true,
	ShapeClassical:  true,
	ShapeRock:       true,
	ShapeJazz:       true,
	ShapeBlues:      true,
	ShapeFolk:       true,
	ShapeElectronic: true,
	ShapeWorld:      true,
	ShapeWildcard:   true,
	ShapePop:        true,
}

// Known reports whether s is a recognized shaping policy.
func (s Shaping) Known() bool {
	return shapings[s]
}

// Profile is one genre: the instruments that may appear in it and how clips
// are shaped.
type Profile struct {
	Name        string
	Instruments []string
	Shaping     Shaping
}

// Eligible reports whether label may appear in a mixture of this genre.
func (p Profile) Eligible(label string) bool {
	for _, in := range p.Instruments {
		if in == label {
			return true
		}
	}
	return false
}

// Table is a validated, read-only set of genre profiles plus the
// instrument → general label map.
type Table struct {
	profiles []Profile
	index    map[string]int
	general  map[string]string
}

// NewTable builds and validates a table. Profiles are ordered by name so
// uniform genre draws are reproducible for a seed.
func NewTable(profiles []Profile, general map[string]string) (*Table, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("genre table is empty")
	}
	t := &Table{
		index:   make(map[string]int, len(profiles)),
		general: make(map[string]string, len(general)),
	}
	for _, p := range profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("genre with empty name")
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate genre %q", name)
		}
		shaping := p.Shaping
		if shaping == "" {
			shaping = ShapeNone
		}
		if !shaping.Known() {
			return nil, fmt.Errorf("genre %q: unknown shaping %q", name, shaping)
		}
		instruments := dedupe(p.Instruments)
		if len(instruments) == 0 {
			return nil, fmt.Errorf("genre %q has no instruments", name)
		}
		t.index[name] = len(t.profiles)
		t.profiles = append(t.profiles, Profile{Name: name, Instruments: instruments, Shaping: shaping})
	}
	sort.Slice(t.profiles, func(i, j int) bool { return t.profiles[i].Name < t.profiles[j].Name })
	for i, p := range t.profiles {
		t.index[p.Name] = i
	}
	for k, v := range general {
		t.general[k] = v
	}
	return t, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Len returns the number of genres.
func (t *Table) Len() int {
	return len(t.profiles)
}

// Names returns genre names in table order.
func (t *Table) Names() []string {
	out := make([]string, len(t.profiles))
	for i, p := range t.profiles {
		out[i] = p.Name
	}
	return out
}

// Profiles returns a copy of the profiles in table order.
func (t *Table) Profiles() []Profile {
	out := make([]Profile, len(t.profiles))
	copy(out, t.profiles)
	return out
}

// Lookup returns the profile named name.
func (t *Table) Lookup(name string) (Profile, bool) {
	i, ok := t.index[name]
	if !ok {
		return Profile{}, false
	}
	return t.profiles[i], true
}

// Pick draws a genre uniformly.
func (t *Table) Pick(rng *rand.Rand) Profile {
	return t.profiles[rng.Intn(len(t.profiles))]
}

// GeneralLabel maps an instrument label to its general category. Labels
// without a mapping are returned unchanged.
func (t *Table) GeneralLabel(label string) string {
	if g, ok := t.general[label]; ok {
		return g
	}
	return label
}

// Generalize maps labels through GeneralLabel and drops duplicates, keeping
// first occurrence order.
func (t *Table) Generalize(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		g := t.GeneralLabel(l)
		if seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
