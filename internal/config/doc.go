// Package config loads, normalizes, and validates mediaconv configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDIACONV_DATA_DIR and MEDIACONV_FFMPEG. The Config type centralizes every
// knob the CLI and the conversion pipeline need so storage directories,
// concurrency, and engine binaries are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
