package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/cwbudde/algo-mixgen/augment"
	"github.com/cwbudde/algo-mixgen/internal/audiofile"
	"github.com/cwbudde/algo-mixgen/mixture"
	"github.com/cwbudde/algo-mixgen/noise"
)

//go:embed sample_config.toml
var sampleConfig string

// Mixture contains the per-mixture rendering settings.
type Mixture struct {
	SampleRate         int     `toml:"sample_rate"`
	ClipSeconds        float64 `toml:"clip_seconds"`
	MinGroups          int     `toml:"min_groups"`
	MaxGroups          int     `toml:"max_groups"`
	SilenceThreshold   float64 `toml:"silence_threshold"`
	MaxSilenceAttempts int     `toml:"max_silence_attempts"`
	// GeneralizeLabels maps instrument labels to their general family
	// (e.g. Double_bass -> Bass) in the metadata table.
	GeneralizeLabels bool `toml:"generalize_labels"`
}

// Augment contains the per-clip augmentation probabilities and parameters.
type Augment struct {
	SpeedProbability float64  `toml:"speed_probability"`
	SpeedMin         float64  `toml:"speed_min"`
	SpeedMax         float64  `toml:"speed_max"`
	SliceProbability float64  `toml:"slice_probability"`
	Slices           int      `toml:"slices"`
	NoiseProbability float64  `toml:"noise_probability"`
	NoiseSNRDB       float64  `toml:"noise_snr_db"`
	NoiseColors      []string `toml:"noise_colors"`
}

// Batch contains the batch driver settings.
type Batch struct {
	Count int `toml:"count"`
	// Workers is an integer >= 1 or "auto".
	Workers          string `toml:"workers"`
	Seed             int64  `toml:"seed"`
	OutputDir        string `toml:"output_dir"`
	MetadataPath     string `toml:"metadata_path"`
	MaxWriteFailures int    `toml:"max_write_failures"`
}

// Catalog contains source catalog and genre table locations.
type Catalog struct {
	Path string `toml:"path"`
	// GenresFile optionally extends or replaces the built-in genre table.
	GenresFile string `toml:"genres_file"`
	// BandCache is the sqlite file caching frequency-band annotations.
	// Empty disables the cache.
	BandCache string `toml:"band_cache"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mixgen.
type Config struct {
	Mixture Mixture `toml:"mixture"`
	Augment Augment `toml:"augment"`
	Batch   Batch   `toml:"batch"`
	Catalog Catalog `toml:"catalog"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mixgen/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned bool reports whether a file was read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("mixgen.toml")
	if err != nil {
		return "", false, err
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// MixtureConfig returns the mixture builder settings.
func (c *Config) MixtureConfig() mixture.Config {
	return mixture.Config{
		SampleRate:         c.Mixture.SampleRate,
		ClipSeconds:        c.Mixture.ClipSeconds,
		MinGroups:          c.Mixture.MinGroups,
		MaxGroups:          c.Mixture.MaxGroups,
		SilenceThreshold:   c.Mixture.SilenceThreshold,
		MaxSilenceAttempts: c.Mixture.MaxSilenceAttempts,
		GeneralizeLabels:   c.Mixture.GeneralizeLabels,
	}
}

// AugmentPolicy returns the augmentation policy.
func (c *Config) AugmentPolicy() augment.Policy {
	colors := make([]noise.Color, 0, len(c.Augment.NoiseColors))
	for _, name := range c.Augment.NoiseColors {
		colors = append(colors, noise.ParseColor(name))
	}
	return augment.Policy{
		SpeedProbability: c.Augment.SpeedProbability,
		SpeedMin:         c.Augment.SpeedMin,
		SpeedMax:         c.Augment.SpeedMax,
		SliceProbability: c.Augment.SliceProbability,
		Slices:           c.Augment.Slices,
		NoiseProbability: c.Augment.NoiseProbability,
		NoiseSNRDB:       c.Augment.NoiseSNRDB,
		NoiseColors:      colors,
	}
}

// DriverConfig returns the batch driver settings.
func (c *Config) DriverConfig() (mixture.DriverConfig, error) {
	workers, err := audiofile.ParseWorkers(c.Batch.Workers)
	if err != nil {
		return mixture.DriverConfig{}, fmt.Errorf("batch.workers: %w", err)
	}
	return mixture.DriverConfig{
		OutputDir:        c.Batch.OutputDir,
		MetadataPath:     c.Batch.MetadataPath,
		Count:            c.Batch.Count,
		Workers:          workers,
		Seed:             c.Batch.Seed,
		MaxWriteFailures: c.Batch.MaxWriteFailures,
	}, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}
