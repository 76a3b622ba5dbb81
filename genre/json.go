package genre

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// File is the JSON schema for genre table overrides.
type File struct {
	// Replace discards the built-in genres instead of merging onto them.
	Replace       bool                  `json:"replace"`
	Genres        map[string]GenreEntry `json:"genres"`
	GeneralLabels map[string]string     `json:"general_labels"`
}

// GenreEntry is a genre override. Omitted fields keep the built-in values.
type GenreEntry struct {
	Instruments []string `json:"instruments"`
	Shaping     *string  `json:"shaping"`
}

// LoadJSON loads a genre file and applies it on top of the default table.
func LoadJSON(path string) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ApplyFile(&f)
}

// ApplyFile merges f onto the built-in profiles and returns a validated table.
func ApplyFile(f *File) (*Table, error) {
	profiles := DefaultProfiles()
	general := DefaultGeneralLabels()
	if f == nil {
		return NewTable(profiles, general)
	}
	if f.Replace {
		profiles = nil
	}

	byName := make(map[string]int, len(profiles))
	for i, p := range profiles {
		byName[p.Name] = i
	}
	for name, e := range f.Genres {
		name = strings.TrimSpace(name)
		i, ok := byName[name]
		if !ok {
			profiles = append(profiles, Profile{Name: name, Shaping: ShapeNone})
			i = len(profiles) - 1
			byName[name] = i
		}
		if e.Instruments != nil {
			profiles[i].Instruments = append([]string(nil), e.Instruments...)
		}
		if e.Shaping != nil {
			profiles[i].Shaping = Shaping(strings.ToLower(strings.TrimSpace(*e.Shaping)))
		}
	}
	for k, v := range f.GeneralLabels {
		general[k] = v
	}
	return NewTable(profiles, general)
}
