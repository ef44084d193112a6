package services

import "context"

type contextKey string

const (
	taskHashKey contextKey = "task_hash"
	stageKey    contextKey = "stage"
	tickIDKey   contextKey = "tick_id"
)

// WithTaskHash annotates context with the task's torrent hash.
func WithTaskHash(ctx context.Context, hash string) context.Context {
	if hash == "" {
		return ctx
	}
	return context.WithValue(ctx, taskHashKey, hash)
}

// TaskHashFromContext extracts the task hash if present.
func TaskHashFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(taskHashKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the lifecycle stage name.
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

// WithTickID annotates context with the driver tick correlation identifier.
func WithTickID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, tickIDKey, id)
}

// TickIDFromContext extracts the tick correlation identifier if present.
func TickIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(tickIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
