package mixture

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/internal/logging"
)

// MetadataFile is the default metadata table name inside the output directory.
const MetadataFile = "mixed_clips_df.csv"

// seedStride spaces per-attempt seeds so neighboring attempts do not share
// random streams.
const seedStride = 7919

// DriverConfig controls a batch run.
type DriverConfig struct {
	OutputDir    string
	MetadataPath string // defaults to OutputDir/MetadataFile
	Count        int
	Workers      int // 0 = GOMAXPROCS
	Seed         int64

	// MaxWriteFailures aborts the batch after this many output write
	// failures. 0 disables the limit.
	MaxWriteFailures int
}

// DefaultDriverConfig returns a 30000-attempt run into mixed_clips with
// automatic worker count.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		OutputDir:        "mixed_clips",
		Count:            30000,
		Workers:          0,
		Seed:             1,
		MaxWriteFailures: 3,
	}
}

func (c *DriverConfig) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return configErrorf("output directory is empty")
	}
	if c.Count < 0 {
		return configErrorf("count must be >= 0, got %d", c.Count)
	}
	if c.Workers < 0 {
		return configErrorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxWriteFailures < 0 {
		return configErrorf("max write failures must be >= 0")
	}
	return nil
}

// Report summarizes a batch.
type Report struct {
	Requested int
	Produced  int

	SelectionFailures int
	SilentFailures    int
	ReadFailures      int
	WriteFailures     int
	OtherFailures     int

	MetadataPath string
	Results      []Result
	Elapsed      time.Duration
}

// Failed returns the number of abandoned attempts.
func (r Report) Failed() int {
	return r.SelectionFailures + r.SilentFailures + r.ReadFailures + r.WriteFailures + r.OtherFailures
}

func (r *Report) count(err error) {
	var asset *AssetError
	switch {
	case errors.Is(err, ErrSelection):
		r.SelectionFailures++
	case errors.Is(err, ErrSilentMixture):
		r.SilentFailures++
	case errors.As(err, &asset) && asset.Op == OpWrite:
		r.WriteFailures++
	case errors.As(err, &asset):
		r.ReadFailures++
	default:
		r.OtherFailures++
	}
}

// Driver runs batches of independent mixture attempts.
type Driver struct {
	cfg     DriverConfig
	builder *Builder
	logger  *slog.Logger

	// OnAttempt, when set, is called after every attempt from the worker
	// that ran it. err is nil on success.
	OnAttempt func(index int, res Result, err error)
}

// NewDriver validates cfg and binds it to builder. An empty MetadataPath
// defaults to MetadataFile inside OutputDir. A nil logger discards output.
func NewDriver(cfg DriverConfig, builder *Builder, logger *slog.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if builder == nil {
		return nil, configErrorf("builder is nil")
	}
	if cfg.MetadataPath == "" {
		cfg.MetadataPath = filepath.Join(cfg.OutputDir, MetadataFile)
	}
	return &Driver{
		cfg:     cfg,
		builder: builder,
		logger:  logging.NewComponentLogger(logger, "batch"),
	}, nil
}

// Config returns the resolved driver configuration.
func (d *Driver) Config() DriverConfig {
	return d.cfg
}

// AttemptPath returns the output path of attempt i.
func (d *Driver) AttemptPath(i int) string {
	return filepath.Join(d.cfg.OutputDir, fmt.Sprintf("mixed_clip_%d.wav", i))
}

// AttemptSeed returns the seed of attempt i's random source.
func (d *Driver) AttemptSeed(i int) int64 {
	return d.cfg.Seed + int64(i)*seedStride
}

type outcome struct {
	done bool
	res  Result
	err  error
}

// Run clears the output directory, runs Count attempts across the worker
// pool and writes the metadata table for the successful ones in attempt
// order. Failed attempts are counted and skipped. Cancelling ctx stops new
// attempts; the results gathered so far are still written.
func (d *Driver) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{Requested: d.cfg.Count, MetadataPath: d.cfg.MetadataPath}

	if err := prepareOutputDir(d.cfg.OutputDir); err != nil {
		return report, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]outcome, d.cfg.Count)
	workers := audiofile.ResolveWorkers(d.cfg.Workers, d.cfg.Count)
	var next int64
	var writeFailures int64
	var aborted atomic.Bool

	d.logger.Info("batch started",
		"requested", d.cfg.Count,
		"workers", workers,
		"seed", d.cfg.Seed,
		"output_dir", d.cfg.OutputDir,
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if runCtx.Err() != nil {
					return
				}
				i := int(atomic.AddInt64(&next, 1) - 1)
				if i >= d.cfg.Count {
					return
				}
				rng := rand.New(rand.NewSource(d.AttemptSeed(i)))
				res, err := d.builder.Build(rng, d.AttemptPath(i))
				res.Index = i
				slots[i] = outcome{done: true, res: res, err: err}
				if err != nil {
					d.logger.Debug("attempt abandoned", "index", i, "error", err)
					var asset *AssetError
					if errors.As(err, &asset) && asset.Op == OpWrite && d.cfg.MaxWriteFailures > 0 {
						if atomic.AddInt64(&writeFailures, 1) >= int64(d.cfg.MaxWriteFailures) {
							aborted.Store(true)
							cancel()
						}
					}
				}
				if d.OnAttempt != nil {
					d.OnAttempt(i, res, err)
				}
			}
		}()
	}
	wg.Wait()

	for _, o := range slots {
		if !o.done {
			continue
		}
		if o.err != nil {
			report.count(o.err)
			continue
		}
		report.Results = append(report.Results, o.res)
	}
	report.Produced = len(report.Results)

	if err := WriteMetadata(d.cfg.MetadataPath, report.Results); err != nil {
		report.Elapsed = time.Since(start)
		return report, &AssetError{Op: OpWrite, Path: d.cfg.MetadataPath, Err: err}
	}
	report.Elapsed = time.Since(start)

	d.logger.Info("batch finished",
		"requested", report.Requested,
		"produced", report.Produced,
		"failed", report.Failed(),
		"elapsed", report.Elapsed.Round(time.Millisecond).String(),
	)

	if aborted.Load() {
		return report, fmt.Errorf("%w: %d", ErrTooManyWriteFailures, report.WriteFailures)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// prepareOutputDir empties dir (creating it if needed) and checks that a
// file can be written there.
func prepareOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &AssetError{Op: OpWrite, Path: dir, Err: err}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &AssetError{Op: OpWrite, Path: dir, Err: err}
	}
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if err := os.RemoveAll(p); err != nil {
			return &AssetError{Op: OpWrite, Path: p, Err: err}
		}
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return &AssetError{Op: OpWrite, Path: dir, Err: err}
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return &AssetError{Op: OpWrite, Path: name, Err: err}
	}
	return nil
}

// WriteMetadata writes the path, labels and genre of every result as CSV.
// Labels are joined with ", ".
func WriteMetadata(path string, results []Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"path", "labels", "genre"}); err != nil {
		file.Close()
		return err
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Path, strings.Join(r.Labels, ", "), r.Genre}); err != nil {
			file.Close()
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadMetadata parses a metadata table written by WriteMetadata.
func ReadMetadata(path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	out := make([]Result, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != 3 {
			return nil, fmt.Errorf("%s: row %d has %d fields", path, i+2, len(row))
		}
		idx := -1
		if _, err := fmt.Sscanf(filepath.Base(row[0]), "mixed_clip_%d.wav", &idx); err != nil {
			idx = -1
		}
		out = append(out, Result{Index: idx, Path: row[0], Labels: strings.Split(row[1], ", "), Genre: row[2]})
	}
	return out, nil
}
