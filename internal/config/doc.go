// Package config loads, normalizes, and validates autoname configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for the
// service credentials (SYPHT_CLIENT_ID, SYPHT_CLIENT_SECRET, ABR_GUID). The
// Config type centralizes every knob the daemon and CLI need so the watched
// directory, output directory, and external service settings are discovered
// in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extensions, and clear validation errors.
package config
