// Package config loads, normalizes, and validates sdsscan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// SDS_DB_HOSTNAME and SDS_LOG_LEVEL. The Config type centralizes the document
// root, store connection, extraction limits, and merge behaviour so the CLI
// discovers every setting in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
