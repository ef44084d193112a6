package logging

import (
	"context"
	"log/slog"

	"seedvault/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTaskHash is the standardized structured logging key for task identifiers.
	FieldTaskHash = "task_hash"
	// FieldTaskName is the standardized structured logging key for task display names.
	FieldTaskName = "task_name"
	// FieldStage is the standardized structured logging key for lifecycle stage names.
	FieldStage = "stage"
	// FieldTickID is the standardized structured logging key for tick correlation identifiers.
	FieldTickID = "tick_id"
	// FieldEventType tags notable workflow events for log filtering.
	FieldEventType = "event_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if hash, ok := services.TaskHashFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTaskHash, hash))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if tick, ok := services.TickIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTickID, tick))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
