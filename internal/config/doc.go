// Package config loads, normalizes, and validates mixgen configuration.
//
// It supplies defaults, expands tilde paths, and reads TOML files. Command
// line flags are applied on top of the loaded Config by cmd/mixgen before
// Validate runs. The To* helpers translate the file layout into the option
// structs used by the mixture and augment packages.
package config
