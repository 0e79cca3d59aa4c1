package logging

import (
	"context"
	"log/slog"

	"cadence/internal/services"
)

const (
	FieldComponent       = "component"
	FieldJobID           = "job_id"
	FieldStage           = "stage"
	FieldCorrelationID   = "correlation_id"
	FieldAlert           = "alert"
	FieldEventType       = "event_type"
	FieldErrorHint       = "error_hint"
	FieldErrorKind       = "error_kind"
	FieldImpact          = "impact"
	FieldProgressPercent = "progress_percent"
)

// ContextFields extracts job, stage and correlation attributes from ctx.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns logger augmented with the fields carried by ctx.
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
