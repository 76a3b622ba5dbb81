package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-mixgen/augment"
	"github.com/cwbudde/algo-mixgen/catalog"
	"github.com/cwbudde/algo-mixgen/genre"
	"github.com/cwbudde/algo-mixgen/internal/bandcache"
	"github.com/cwbudde/algo-mixgen/internal/config"
	"github.com/cwbudde/algo-mixgen/mixture"
)

type generateFlags struct {
	catalog          string
	genres           string
	bandCache        string
	outputDir        string
	metadata         string
	count            int
	workers          string
	seed             int64
	sampleRate       int
	clipSeconds      float64
	minGroups        int
	maxGroups        int
	generalizeLabels bool
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Annotate the catalog if needed and render a batch of mixtures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := f.apply(cmd, cfg); err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runGenerate(cmd.Context(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.catalog, "catalog", "", "Source catalog CSV")
	flags.StringVar(&f.genres, "genres", "", "JSON file extending or replacing the genre table")
	flags.StringVar(&f.bandCache, "band-cache", "", "Band annotation cache (sqlite); \"off\" disables it")
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "Output directory (cleared before the run)")
	flags.StringVar(&f.metadata, "metadata", "", "Metadata CSV path (default <output-dir>/"+mixture.MetadataFile+")")
	flags.IntVarP(&f.count, "count", "n", 0, "Number of mixture attempts")
	flags.StringVarP(&f.workers, "workers", "j", "", "Worker count: integer >= 1 or 'auto'")
	flags.Int64Var(&f.seed, "seed", 0, "Base random seed")
	flags.IntVar(&f.sampleRate, "sample-rate", 0, "Output sample rate in Hz")
	flags.Float64Var(&f.clipSeconds, "clip-seconds", 0, "Mixture length in seconds")
	flags.IntVar(&f.minGroups, "min-groups", 0, "Minimum (label, band) groups per mixture")
	flags.IntVar(&f.maxGroups, "max-groups", 0, "Maximum (label, band) groups per mixture")
	flags.BoolVar(&f.generalizeLabels, "generalize-labels", false, "Emit instrument family labels")
	return cmd
}

// apply copies explicitly set flags over cfg and revalidates it.
func (f *generateFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.Catalog.Path = f.catalog
	}
	if flags.Changed("genres") {
		cfg.Catalog.GenresFile = f.genres
	}
	if flags.Changed("band-cache") {
		cfg.Catalog.BandCache = f.bandCache
		if f.bandCache == "off" {
			cfg.Catalog.BandCache = ""
		}
	}
	if flags.Changed("output-dir") {
		cfg.Batch.OutputDir = f.outputDir
	}
	if flags.Changed("metadata") {
		cfg.Batch.MetadataPath = f.metadata
	}
	if flags.Changed("count") {
		cfg.Batch.Count = f.count
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if flags.Changed("seed") {
		cfg.Batch.Seed = f.seed
	}
	if flags.Changed("sample-rate") {
		cfg.Mixture.SampleRate = f.sampleRate
	}
	if flags.Changed("clip-seconds") {
		cfg.Mixture.ClipSeconds = f.clipSeconds
	}
	if flags.Changed("min-groups") {
		cfg.Mixture.MinGroups = f.minGroups
	}
	if flags.Changed("max-groups") {
		cfg.Mixture.MaxGroups = f.maxGroups
	}
	if flags.Changed("generalize-labels") {
		cfg.Mixture.GeneralizeLabels = f.generalizeLabels
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.Validate()
}

func runGenerate(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer, stderr io.Writer) error {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	driverCfg, err := cfg.DriverConfig()
	if err != nil {
		return err
	}

	// Configuration inputs are checked before the catalog is annotated and
	// rewritten.
	table, err := loadGenres(cfg.Catalog.GenresFile)
	if err != nil {
		return err
	}
	aug, err := augment.New(cfg.AugmentPolicy())
	if err != nil {
		return fmt.Errorf("%w: %v", mixture.ErrConfiguration, err)
	}

	lock, err := lockOutputDir(driverCfg.OutputDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	cat, err := loadCatalog(ctx, cfg, driverCfg.Workers, logger, stderr)
	if err != nil {
		return err
	}
	builder, err := mixture.NewBuilder(cfg.MixtureConfig(), cat, table, aug, mixture.BuilderOptions{Logger: logger})
	if err != nil {
		return err
	}
	driver, err := mixture.NewDriver(driverCfg, builder, logger)
	if err != nil {
		return err
	}

	bar := newProgress(stderr, "Mixing", driverCfg.Count)
	driver.OnAttempt = func(int, mixture.Result, error) { bar.Increment() }
	report, runErr := driver.Run(ctx)
	bar.Wait()

	fmt.Fprintln(stdout, renderSummary(report))
	if len(report.Results) > 0 {
		fmt.Fprintln(stdout, renderGenreCounts(report.Results))
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("run complete",
		"metadata", report.MetadataPath,
		"produced", report.Produced,
		"requested", report.Requested,
	)
	return nil
}

// lockOutputDir takes an exclusive lock on a sibling of dir so that two runs
// never clear and fill the same directory at once.
func lockOutputDir(dir string) (*flock.Flock, error) {
	clean := filepath.Clean(dir)
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return nil, &mixture.AssetError{Op: mixture.OpWrite, Path: dir, Err: err}
	}
	lock := flock.New(clean + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("output directory %s is in use by another mixgen run", clean)
	}
	return lock, nil
}

// loadCatalog reads the catalog and, when rows lack a frequency range,
// annotates them and saves the result back to the same file.
func loadCatalog(ctx context.Context, cfg *config.Config, workers int, logger *slog.Logger, stderr io.Writer) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mixture.ErrConfiguration, err)
	}
	if !cat.NeedsAnnotation() {
		return cat, nil
	}

	sampleRate := cfg.Mixture.SampleRate
	fn := catalog.ClassifyAudio(sampleRate)
	if cfg.Catalog.BandCache != "" {
		cache, err := bandcache.Open(cfg.Catalog.BandCache, logger)
		if err != nil {
			return nil, err
		}
		defer cache.Close()
		fn = cache.Wrap(sampleRate, fn)
		defer func() {
			hits, misses := cache.Stats()
			logger.Info("band cache", "path", cache.Path(), "hits", hits, "misses", misses)
		}()
	}

	pending := 0
	for _, clip := range cat.Clips() {
		if !clip.HasRange {
			pending++
		}
	}
	logger.Info("annotating catalog", "rows", cat.Len(), "pending", pending)
	bar := newProgress(stderr, "Classifying", pending)
	start := time.Now()
	annotated, stats, err := catalog.Annotate(ctx, cat, fn, catalog.AnnotateOptions{
		Workers:  workers,
		Logger:   logger,
		Progress: bar.Increment,
	})
	bar.Wait()
	if err != nil {
		return nil, err
	}
	logger.Info("catalog annotated",
		"classified", stats.Classified,
		"dropped", stats.Dropped,
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)
	if err := annotated.Save(cfg.Catalog.Path); err != nil {
		return nil, fmt.Errorf("save annotated catalog: %w", err)
	}
	return annotated, nil
}

func loadGenres(path string) (*genre.Table, error) {
	if path == "" {
		return genre.Default(), nil
	}
	table, err := genre.LoadJSON(path)
	if err != nil {
		return nil, fmt.Errorf("%w: genres: %v", mixture.ErrConfiguration, err)
	}
	return table, nil
}

func renderSummary(r mixture.Report) string {
	rows := [][]string{
		{"Requested", strconv.Itoa(r.Requested)},
		{"Produced", strconv.Itoa(r.Produced)},
		{"Failed: selection", strconv.Itoa(r.SelectionFailures)},
		{"Failed: silent", strconv.Itoa(r.SilentFailures)},
		{"Failed: read", strconv.Itoa(r.ReadFailures)},
		{"Failed: write", strconv.Itoa(r.WriteFailures)},
		{"Failed: other", strconv.Itoa(r.OtherFailures)},
		{"Elapsed", r.Elapsed.Round(time.Millisecond).String()},
	}
	if r.MetadataPath != "" {
		rows = append(rows, []string{"Metadata", r.MetadataPath})
	}
	return renderTable([]string{"Batch", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderGenreCounts(results []mixture.Result) string {
	counts := make(map[string]int)
	for _, res := range results {
		counts[res.Genre]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{displayName(name), strconv.Itoa(counts[name])})
	}
	return renderTable([]string{"Genre", "Mixtures"}, rows, []columnAlignment{alignLeft, alignRight})
}

