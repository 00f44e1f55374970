package logging

import (
	"context"
	"log/slog"

	"boreline/internal/reqctx"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := reqctx.WorkItemIDFromContext(ctx); ok {
		fields = append(fields, WorkItemID(id))
	}
	if id, ok := reqctx.StationIDFromContext(ctx); ok {
		fields = append(fields, StationID(id))
	}
	if id, ok := reqctx.ActorIDFromContext(ctx); ok {
		fields = append(fields, ActorID(id))
	}
	if id, ok := reqctx.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, id))
	}
	return fields
}

// WithContext returns a logger augmented with fields derived from ctx.
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
