// Package config loads, normalizes, and validates Winnow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// WINNOW_STATE_DIR. The Config type centralizes every knob the CLI needs,
// from quarantine naming and fingerprint sizing to exclude patterns and
// log formats.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config
