package logging

import (
	"context"
	"log/slog"

	"catchup/internal/services"
)

// Canonical structured log keys. Handlers and call sites share these so one
// identifier greps the same across console lines, per-job logs, and JSON
// output.
const (
	FieldComponent     = "component"
	FieldJobID         = "job_id"
	FieldLectureID     = "lecture_id"
	FieldStage         = "stage"
	FieldArtifact      = "artifact"
	FieldCorrelationID = "correlation_id"
)

// ContextFields collects the job, stage, and correlation identifiers carried
// by ctx. Absent values contribute nothing.
func ContextFields(ctx context.Context) []Attr {
	if ctx == nil {
		return nil
	}
	var fields []Attr
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, String(FieldJobID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger augmented with the identifiers ctx carries.
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
