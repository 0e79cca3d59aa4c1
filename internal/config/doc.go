// Package config loads, normalizes, and validates cadence configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, applies an optional dotenv file, and honours
// environment overrides such as CADENCE_NTFY_TOPIC. The Config type
// centralizes every knob the CLI and daemon need so output directories,
// ffmpeg binaries, and notification targets are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
