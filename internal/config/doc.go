// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and the CLI. Load merges file values over repository
// defaults, expands home-relative paths, and fails on unusable settings so
// later subsystems can trust every field.
package config
