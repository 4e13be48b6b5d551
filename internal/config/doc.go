// Package config loads, normalizes, and validates Tactile configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TACTILE_TRANSFORM_API_KEY. The Config type centralizes every knob the CLI
// needs, so staging directories, service credentials, and retry cadence are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
