// Package reqctx carries request-scoped identifiers through contexts so log
// lines can be tagged with the barrel, station and actor they concern.
package reqctx

import "context"

type contextKey string

const (
	workItemIDKey contextKey = "work_item_id"
	stationIDKey  contextKey = "station_id"
	actorIDKey    contextKey = "actor_id"
	requestIDKey  contextKey = "request_id"
)

// WithWorkItemID annotates context with the work item identifier.
func WithWorkItemID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, workItemIDKey, id)
}

// WorkItemIDFromContext extracts the work item identifier if present.
func WorkItemIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, workItemIDKey)
}

// WithStationID annotates context with the station identifier.
func WithStationID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, stationIDKey, id)
}

// StationIDFromContext extracts the station identifier if present.
func StationIDFromContext(ctx context.Context) (int64, bool) {
	switch v := ctx.Value(stationIDKey).(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// WithActorID annotates context with the acting user.
func WithActorID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, actorIDKey, id)
}

// ActorIDFromContext returns the acting user if present.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, actorIDKey)
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, requestIDKey)
}

func stringValue(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	if str, ok := ctx.Value(key).(string); ok && str != "" {
		return str, true
	}
	return "", false
}
