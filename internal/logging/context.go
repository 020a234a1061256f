package logging

import (
	"context"
	"log/slog"

	"sdsscan/internal/pipeline"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := pipeline.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if stage, ok := pipeline.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if vendor, ok := pipeline.VendorFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldVendor, vendor))
	}
	if doc, ok := pipeline.DocumentFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDocument, doc))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
