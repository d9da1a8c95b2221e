// Package config loads, normalizes, and validates bookvoice configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// BOOKVOICE_LLM_API_KEY. Backend names for translation and speech are
// resolved into typed kinds here, once, so downstream packages never sniff
// strings at call time.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
