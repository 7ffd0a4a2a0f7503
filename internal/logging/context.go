package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent names the subsystem; the console handler prints it as a prefix.
	FieldComponent = "component"
	// FieldEventType names the kind of event a line records.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to do next.
	FieldErrorHint = "error_hint"
	// FieldImpact states what a warning costs the user.
	FieldImpact = "impact"
	// FieldRunID identifies one pipeline run.
	FieldRunID = "run_id"
	// FieldBatch is the 1-based batch number within a run.
	FieldBatch = "batch"
	// FieldPath is the audio file a line refers to.
	FieldPath = "path"
	// FieldState is the orchestrator state name.
	FieldState = "state"
)

type contextKey int

const (
	runIDKey contextKey = iota
	batchKey
)

// WithRunID tags ctx with a run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithBatch tags ctx with a batch number.
func WithBatch(ctx context.Context, batch int) context.Context {
	return context.WithValue(ctx, batchKey, batch)
}

// RunIDFromContext returns the run identifier stored in ctx.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if batch, ok := ctx.Value(batchKey).(int); ok {
		fields = append(fields, slog.Int(FieldBatch, batch))
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
