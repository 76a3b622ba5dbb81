// Package mixture builds labeled multi-instrument mixtures from a catalog of
// single-instrument clips and drives batches of them.
package mixture

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-mixgen/augment"
	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/dsp"
	"github.com/cwbudde/algo-mixgen/genre"
	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/internal/logging"
)

// Config controls mixture construction.
type Config struct {
	SampleRate  int
	ClipSeconds float64

	MinGroups int
	MaxGroups int

	SilenceThreshold   float64
	MaxSilenceAttempts int

	// GeneralizeLabels maps emitted labels through the genre table's
	// general label map.
	GeneralizeLabels bool
}

// DefaultConfig returns 3 s mixtures at 44.1 kHz with 3 to 8 groups.
func DefaultConfig() Config {
	return Config{
		SampleRate:         44100,
		ClipSeconds:        3,
		MinGroups:          3,
		MaxGroups:          8,
		SilenceThreshold:   0.01,
		MaxSilenceAttempts: 10,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 1000 {
		return configErrorf("sample rate too low: %d", c.SampleRate)
	}
	if c.ClipSeconds <= 0 || math.IsNaN(c.ClipSeconds) || math.IsInf(c.ClipSeconds, 0) {
		return configErrorf("clip seconds must be > 0")
	}
	if c.Frames() < 1 {
		return configErrorf("clip of %.4fs at %d Hz has no frames", c.ClipSeconds, c.SampleRate)
	}
	if c.MinGroups < 1 {
		return configErrorf("min_groups must be >= 1, got %d", c.MinGroups)
	}
	if c.MinGroups > c.MaxGroups {
		return configErrorf("min_groups (%d) must be <= max_groups (%d)", c.MinGroups, c.MaxGroups)
	}
	if c.SilenceThreshold < 0 {
		return configErrorf("silence threshold must be >= 0")
	}
	if c.MaxSilenceAttempts < 1 {
		return configErrorf("max silence attempts must be >= 1")
	}
	return nil
}

// Frames returns the mixture length in samples.
func (c *Config) Frames() int {
	return int(math.Round(float64(c.SampleRate) * c.ClipSeconds))
}

// Spec is a planned mixture: the drawn genre and the clips to combine.
type Spec struct {
	Genre      genre.Profile
	Clips      []catalog.SourceClip
	Frames     int
	SampleRate int
}

// Result describes one written mixture.
type Result struct {
	Index  int
	Path   string
	Labels []string
	Genre  string
}

// LoadFunc reads a source file as mono at sampleRate.
type LoadFunc func(path string, sampleRate int) ([]float64, error)

// WriteFunc writes a mono mixture.
type WriteFunc func(path string, data []float64, sampleRate int) error

// BuilderOptions supplies optional collaborators. Zero values use the WAV
// reader and writer from internal/audiofile.
type BuilderOptions struct {
	Load   LoadFunc
	Write  WriteFunc
	Logger *slog.Logger
}

// Builder produces one mixture per call. It holds no per-mixture state and
// may be shared by workers that each pass their own rng.
type Builder struct {
	cfg       Config
	table     *genre.Table
	selector  *Selector
	augmentor *augment.Augmentor
	load      LoadFunc
	write     WriteFunc
	logger    *slog.Logger
}

// NewBuilder validates cfg and partitions cat for selection.
func NewBuilder(cfg Config, cat *catalog.Catalog, table *genre.Table, aug *augment.Augmentor, opts BuilderOptions) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if aug == nil {
		return nil, configErrorf("augmentor is nil")
	}
	sel, err := NewSelector(cat, table, cfg.MinGroups, cfg.MaxGroups)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		cfg:       cfg,
		table:     table,
		selector:  sel,
		augmentor: aug,
		load:      opts.Load,
		write:     opts.Write,
		logger:    logging.NewComponentLogger(opts.Logger, "mixture"),
	}
	if b.load == nil {
		b.load = audiofile.Load
	}
	if b.write == nil {
		b.write = audiofile.WriteMonoWAV
	}
	return b, nil
}

// Config returns the builder configuration.
func (b *Builder) Config() Config {
	return b.cfg
}

// Selector returns the clip selector.
func (b *Builder) Selector() *Selector {
	return b.selector
}

// Plan draws a genre and selects its clips. An empty selection yields
// ErrSelection.
func (b *Builder) Plan(rng *rand.Rand) (Spec, error) {
	profile := b.table.Pick(rng)
	clips, err := b.selector.Select(rng, profile.Name)
	if err != nil {
		return Spec{}, err
	}
	if len(clips) == 0 {
		return Spec{}, fmt.Errorf("genre %s: %w", profile.Name, ErrSelection)
	}
	return Spec{
		Genre:      profile,
		Clips:      clips,
		Frames:     b.cfg.Frames(),
		SampleRate: b.cfg.SampleRate,
	}, nil
}

// Render loads, segments and augments every clip of spec, sums them into a
// buffer of exactly spec.Frames samples and peak-normalizes the result.
func (b *Builder) Render(rng *rand.Rand, spec Spec) ([]float64, error) {
	mix := make([]float64, spec.Frames)
	for _, clip := range spec.Clips {
		x, err := b.load(clip.Location, spec.SampleRate)
		if err != nil {
			return nil, &AssetError{Op: OpRead, Path: clip.Location, Err: err}
		}
		if len(x) == 0 {
			return nil, &AssetError{Op: OpRead, Path: clip.Location, Err: audiofile.ErrEmpty}
		}
		seg := ExtractSegment(rng, x, spec.Frames, b.cfg.SilenceThreshold, b.cfg.MaxSilenceAttempts)
		y, applied, err := b.augmentor.Apply(rng, seg, spec.Genre.Shaping)
		if err != nil {
			return nil, fmt.Errorf("augment %s: %w", clip.Path, err)
		}
		b.logger.Debug("clip augmented",
			"path", clip.Path,
			"label", clip.Label,
			"band", clip.FrequencyRange.String(),
			"speed", applied.Speed,
			"sliced", applied.Sliced,
			"noise", string(applied.Noise),
		)
		dsp.AddInto(mix, dsp.Fit(y, spec.Frames))
	}
	out, ok := dsp.PeakNormalize(mix)
	if !ok {
		return nil, fmt.Errorf("genre %s: %w", spec.Genre.Name, ErrSilentMixture)
	}
	return out, nil
}

// Labels returns the ground-truth labels of spec in selection order.
func (b *Builder) Labels(spec Spec) []string {
	labels := make([]string, len(spec.Clips))
	for i, c := range spec.Clips {
		labels[i] = c.Label
	}
	if b.cfg.GeneralizeLabels {
		return b.table.Generalize(labels)
	}
	return labels
}

// Build plans, renders and writes one mixture to path.
func (b *Builder) Build(rng *rand.Rand, path string) (Result, error) {
	spec, err := b.Plan(rng)
	if err != nil {
		return Result{}, err
	}
	mix, err := b.Render(rng, spec)
	if err != nil {
		return Result{}, err
	}
	if err := b.write(path, mix, spec.SampleRate); err != nil {
		return Result{}, &AssetError{Op: OpWrite, Path: path, Err: err}
	}
	return Result{
		Path:   path,
		Labels: b.Labels(spec),
		Genre:  spec.Genre.Name,
	}, nil
}
