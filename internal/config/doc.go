// Package config loads, normalizes, and validates imgvault configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// IMGVAULT_LABELER_API_KEY. The Config type centralizes the archive root, the
// extraction output root, the catalog database location, and the optional
// labeler credentials so every command resolves them the same way.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
