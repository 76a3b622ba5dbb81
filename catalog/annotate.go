package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/internal/logging"
	"github.com/cwbudde/algo-mixgen/spectral"
	"golang.org/x/sync/errgroup"
)

// BandFunc computes the dominant frequency range of a clip.
type BandFunc func(ctx context.Context, clip SourceClip) (spectral.Band, error)

// ClassifyAudio returns a BandFunc that loads each clip at sampleRate and
// runs the spectral classifier on it.
func ClassifyAudio(sampleRate int) BandFunc {
	return func(ctx context.Context, clip SourceClip) (spectral.Band, error) {
		x, err := audiofile.Load(clip.Location, sampleRate)
		if err != nil {
			return spectral.SubBass, err
		}
		c, err := spectral.New(spectral.DefaultConfig())
		if err != nil {
			return spectral.SubBass, err
		}
		return c.Classify(x, sampleRate)
	}
}

// AnnotateOptions tunes Annotate.
type AnnotateOptions struct {
	Workers  int // 0 = GOMAXPROCS
	Logger   *slog.Logger
	Progress func() // called once per classified row, from worker goroutines
}

// AnnotateStats summarizes an annotation pass.
type AnnotateStats struct {
	Classified int
	Dropped    int
}

// Annotate returns a new catalog in which every row carries a frequency
// range. Rows that already have one are kept as is; rows whose band cannot
// be computed are dropped and counted.
func Annotate(ctx context.Context, c *Catalog, fn BandFunc, opts AnnotateOptions) (*Catalog, AnnotateStats, error) {
	logger := logging.NewComponentLogger(opts.Logger, "catalog")

	type result struct {
		band spectral.Band
		err  error
	}
	results := make([]result, len(c.clips))
	var pending []int
	for i, clip := range c.clips {
		if !clip.HasRange {
			pending = append(pending, i)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(audiofile.ResolveWorkers(opts.Workers, len(pending)))
	for _, idx := range pending {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := fn(gctx, c.clips[idx])
			results[idx] = result{band: b, err: err}
			if opts.Progress != nil {
				opts.Progress()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, AnnotateStats{}, fmt.Errorf("annotate catalog: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, AnnotateStats{}, fmt.Errorf("annotate catalog: %w", err)
	}

	var stats AnnotateStats
	out := &Catalog{dir: c.dir, extraCols: c.extraCols, clips: make([]SourceClip, 0, len(c.clips))}
	for i, clip := range c.clips {
		if clip.HasRange {
			out.clips = append(out.clips, clip)
			continue
		}
		r := results[i]
		if r.err != nil {
			stats.Dropped++
			logger.Warn("dropping unreadable catalog row",
				"path", clip.Path,
				"label", clip.Label,
				"error", r.err,
			)
			continue
		}
		clip.FrequencyRange = r.band
		clip.HasRange = true
		out.clips = append(out.clips, clip)
		stats.Classified++
	}
	return out, stats, nil
}
