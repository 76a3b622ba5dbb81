package config

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-mixgen/noise"
)

// Normalize expands paths and canonicalizes enumerated values. It is called
// by Load and must be called again after flag overrides.
func (c *Config) Normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAugment()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	if c.Catalog.GenresFile, err = expandPath(strings.TrimSpace(c.Catalog.GenresFile)); err != nil {
		return fmt.Errorf("catalog.genres_file: %w", err)
	}
	if c.Catalog.BandCache, err = expandPath(strings.TrimSpace(c.Catalog.BandCache)); err != nil {
		return fmt.Errorf("catalog.band_cache: %w", err)
	}
	if c.Batch.OutputDir, err = expandPath(c.Batch.OutputDir); err != nil {
		return fmt.Errorf("batch.output_dir: %w", err)
	}
	if c.Batch.MetadataPath, err = expandPath(strings.TrimSpace(c.Batch.MetadataPath)); err != nil {
		return fmt.Errorf("batch.metadata_path: %w", err)
	}
	if strings.TrimSpace(c.Batch.Workers) == "" {
		c.Batch.Workers = defaultWorkers
	}
	return nil
}

func (c *Config) normalizeAugment() {
	colors := make([]string, 0, len(c.Augment.NoiseColors))
	for _, name := range c.Augment.NoiseColors {
		colors = append(colors, string(noise.ParseColor(name)))
	}
	c.Augment.NoiseColors = colors
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
