// Package pipeline defines shared utilities consumed by the ingest, merge,
// and override stages.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, vendor codes, document paths, and
//     stage names for logging.
//   - Structured error markers plus the Wrap helper that separate soft
//     failures (one document, one finding) from failures that abort a run.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package pipeline
