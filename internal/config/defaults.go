package config

const (
	defaultSampleRate         = 44100
	defaultClipSeconds        = 3.0
	defaultMinGroups          = 3
	defaultMaxGroups          = 8
	defaultSilenceThreshold   = 0.01
	defaultMaxSilenceAttempts = 10
	defaultSpeedProbability   = 0.5
	defaultSpeedMin           = 0.9
	defaultSpeedMax           = 1.1
	defaultSliceProbability   = 0.3
	defaultSlices             = 4
	defaultNoiseProbability   = 0.5
	defaultNoiseSNRDB         = 20.0
	defaultCount              = 30000
	defaultWorkers            = "auto"
	defaultSeed               = 1
	defaultOutputDir          = "mixed_clips"
	defaultMaxWriteFailures   = 3
	defaultCatalogPath        = "clips.csv"
	defaultBandCachePath      = "~/.cache/mixgen/bands.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultNoiseColors = []string{"white", "pink", "brownian"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Mixture: Mixture{
			SampleRate:         defaultSampleRate,
			ClipSeconds:        defaultClipSeconds,
			MinGroups:          defaultMinGroups,
			MaxGroups:          defaultMaxGroups,
			SilenceThreshold:   defaultSilenceThreshold,
			MaxSilenceAttempts: defaultMaxSilenceAttempts,
		},
		Augment: Augment{
			SpeedProbability: defaultSpeedProbability,
			SpeedMin:         defaultSpeedMin,
			SpeedMax:         defaultSpeedMax,
			SliceProbability: defaultSliceProbability,
			Slices:           defaultSlices,
			NoiseProbability: defaultNoiseProbability,
			NoiseSNRDB:       defaultNoiseSNRDB,
			NoiseColors:      append([]string(nil), defaultNoiseColors...),
		},
		Batch: Batch{
			Count:            defaultCount,
			Workers:          defaultWorkers,
			Seed:             defaultSeed,
			OutputDir:        defaultOutputDir,
			MaxWriteFailures: defaultMaxWriteFailures,
		},
		Catalog: Catalog{
			Path:      defaultCatalogPath,
			BandCache: defaultBandCachePath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
