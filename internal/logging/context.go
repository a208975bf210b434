package logging

import (
	"context"
	"log/slog"

	"imgvault/internal/services"
)

const (
	// FieldComponent names the package emitting the line.
	FieldComponent = "component"
	// FieldExperiment is the experiment being inserted, extracted or deleted.
	FieldExperiment = "experiment"
	// FieldOperation is the CLI operation (insert, query, extract, delete, ...).
	FieldOperation = "operation"
	// FieldCorrelationID ties together every line of one CLI invocation.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields returns the experiment, operation and correlation id stored
// in ctx by the services package.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if name, ok := services.ExperimentFromContext(ctx); ok {
		fields = append(fields, String(FieldExperiment, name))
	}
	if op, ok := services.OperationFromContext(ctx); ok {
		fields = append(fields, String(FieldOperation, op))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, String(FieldCorrelationID, rid))
	}
	return fields
}

// contextHandler copies ContextFields onto every record logged through the
// *Context methods. Keys already bound with Logger.With are not repeated.
type contextHandler struct {
	next  slog.Handler
	bound map[string]struct{}
}

func withContextFields(next slog.Handler) slog.Handler {
	return contextHandler{next: next}
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, record slog.Record) error {
	for _, attr := range ContextFields(ctx) {
		if _, ok := h.bound[attr.Key]; !ok {
			record.AddAttrs(attr)
		}
	}
	return h.next.Handle(ctx, record)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]struct{}, len(h.bound)+len(attrs))
	for key := range h.bound {
		bound[key] = struct{}{}
	}
	for _, attr := range attrs {
		bound[attr.Key] = struct{}{}
	}
	return contextHandler{next: h.next.WithAttrs(attrs), bound: bound}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{next: h.next.WithGroup(name), bound: h.bound}
}
