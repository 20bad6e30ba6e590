// Package config loads, normalizes, and validates shortpipe configuration.
//
// Configuration lives in a TOML file (default ~/.config/shortpipe/config.toml).
// Load applies defaults, expands paths, and validates the result; invalid
// thresholds, duration bounds, publish windows, and template catalogs are
// configuration errors reported at load time, never silently corrected.
package config
