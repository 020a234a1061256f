// Package logging assembles structured slog loggers and formatting helpers used
// across sdsscan.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so ingest and merge code can tag
// log lines with run IDs, vendor codes, and document paths. The package also
// provides a no-op logger for tests and retention pruning for per-run log files.
package logging
