// Package config loads, normalizes, and validates soundcatalog configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI and pipeline need: catalog and backup locations, source roots, batch
// sizing, classifier thresholds, and the extraction collaborator command.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors. Nothing here is global; callers
// pass the loaded *Config (or values derived from it) explicitly.
package config
