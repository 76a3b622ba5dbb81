// Package catalog loads and saves the source clip table consumed by the
// mixture generator.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cwbudde/algo-mixgen/spectral"
)

const (
	ColPath           = "path"
	ColLabel          = "label"
	ColDataset        = "dataset"
	ColFrequencyRange = "frequency_range"
)

var knownColumns = []string{ColPath, ColLabel, ColDataset, ColFrequencyRange}

// SourceClip is one catalog row.
type SourceClip struct {
	Path     string // as recorded in the catalog
	Location string // Path resolved against the catalog directory
	Label    string
	Dataset  string

	FrequencyRange spectral.Band
	HasRange       bool

	Extra map[string]string
}

// Catalog is an immutable, ordered set of source clips.
type Catalog struct {
	dir       string
	extraCols []string
	clips     []SourceClip
}

// New builds a catalog from clips. Locations left empty resolve against dir.
func New(dir string, clips []SourceClip) *Catalog {
	c := &Catalog{dir: dir, clips: make([]SourceClip, len(clips))}
	seen := make(map[string]bool)
	for i, clip := range clips {
		if clip.Location == "" {
			clip.Location = resolve(dir, clip.Path)
		}
		c.clips[i] = clip
		for k := range clip.Extra {
			if !seen[k] {
				seen[k] = true
				c.extraCols = append(c.extraCols, k)
			}
		}
	}
	sort.Strings(c.extraCols)
	return c
}

func resolve(dir string, p string) string {
	if p == "" || filepath.IsAbs(p) || dir == "" {
		return p
	}
	return filepath.Clean(filepath.Join(dir, p))
}

// Len returns the number of rows.
func (c *Catalog) Len() int {
	return len(c.clips)
}

// At returns row i.
func (c *Catalog) At(i int) SourceClip {
	return c.clips[i]
}

// Clips returns a copy of the rows in catalog order.
func (c *Catalog) Clips() []SourceClip {
	out := make([]SourceClip, len(c.clips))
	copy(out, c.clips)
	return out
}

// Dir returns the directory relative paths resolve against.
func (c *Catalog) Dir() string {
	return c.dir
}

// NeedsAnnotation reports whether any row lacks a frequency range.
func (c *Catalog) NeedsAnnotation() bool {
	for _, clip := range c.clips {
		if !clip.HasRange {
			return true
		}
	}
	return false
}

// Labels returns the distinct labels in first-seen order.
func (c *Catalog) Labels() []string {
	seen := make(map[string]bool)
	var out []string
	for _, clip := range c.clips {
		if !seen[clip.Label] {
			seen[clip.Label] = true
			out = append(out, clip.Label)
		}
	}
	return out
}

// Load reads a catalog CSV. The header must contain path and label;
// dataset and frequency_range are optional and other columns are kept.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	c, err := Read(f, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read parses catalog CSV from r, resolving relative paths against dir.
func Read(r io.Reader, dir string) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty catalog")
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	var extra []string
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := cols[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		cols[h] = i
		if !isKnown(h) {
			extra = append(extra, h)
		}
	}
	for _, req := range []string{ColPath, ColLabel} {
		if _, ok := cols[req]; !ok {
			return nil, fmt.Errorf("missing required column %q", req)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	c := &Catalog{dir: dir, extraCols: extra}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		clip := SourceClip{
			Path:    field(rec, ColPath),
			Label:   field(rec, ColLabel),
			Dataset: field(rec, ColDataset),
		}
		if clip.Path == "" {
			return nil, fmt.Errorf("line %d: empty path", line)
		}
		if clip.Label == "" {
			return nil, fmt.Errorf("line %d: empty label", line)
		}
		clip.Location = resolve(dir, clip.Path)
		if fr := field(rec, ColFrequencyRange); fr != "" {
			b, err := spectral.ParseBand(fr)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			clip.FrequencyRange = b
			clip.HasRange = true
		}
		if len(extra) > 0 {
			clip.Extra = make(map[string]string, len(extra))
			for _, name := range extra {
				clip.Extra[name] = field(rec, name)
			}
		}
		c.clips = append(c.clips, clip)
	}
	return c, nil
}

func isKnown(col string) bool {
	for _, k := range knownColumns {
		if k == col {
			return true
		}
	}
	return false
}

// Save writes the catalog as CSV, replacing path atomically.
func (c *Catalog) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*.csv")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if err := c.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Write encodes the catalog as CSV to w.
func (c *Catalog) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append(append([]string(nil), knownColumns...), c.extraCols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, clip := range c.clips {
		fr := ""
		if clip.HasRange {
			fr = clip.FrequencyRange.String()
		}
		rec := []string{clip.Path, clip.Label, clip.Dataset, fr}
		for _, name := range c.extraCols {
			rec = append(rec, clip.Extra[name])
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
