package config

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-mixgen/internal/logging"
	"github.com/cwbudde/algo-mixgen/noise"
)

// Validate ensures the configuration is usable. Range checks on mixture,
// augmentation and batch settings are delegated to the packages that own
// them, so the error messages match what the library reports.
func (c *Config) Validate() error {
	if err := c.validateMixture(); err != nil {
		return err
	}
	if err := c.validateAugment(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMixture() error {
	mc := c.MixtureConfig()
	if err := mc.Validate(); err != nil {
		return fmt.Errorf("mixture: %w", err)
	}
	return nil
}

func (c *Config) validateAugment() error {
	for _, name := range c.Augment.NoiseColors {
		if !noise.Supported(noise.Color(name)) {
			return fmt.Errorf("augment.noise_colors: unsupported color %q", name)
		}
	}
	p := c.AugmentPolicy()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("augment: %w", err)
	}
	return nil
}

func (c *Config) validateBatch() error {
	dc, err := c.DriverConfig()
	if err != nil {
		return err
	}
	if err := dc.Validate(); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Path == "" {
		return errors.New("catalog.path must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}
