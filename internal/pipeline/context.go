package pipeline

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	vendorKey   contextKey = "vendor"
	documentKey contextKey = "document"
	stageKey    contextKey = "stage"
)

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithVendor annotates context with the vendor code being processed.
func WithVendor(ctx context.Context, code string) context.Context {
	if code == "" {
		return ctx
	}
	return context.WithValue(ctx, vendorKey, code)
}

// VendorFromContext returns the vendor code if present.
func VendorFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(vendorKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDocument annotates context with the document path relative to the documents root.
func WithDocument(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, documentKey, path)
}

// DocumentFromContext returns the document path if present.
func DocumentFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(documentKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name (ingest, merge, overrides).
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
