package services

import "context"

type contextKey string

const (
	jobHandleKey contextKey = "job_handle"
	sourceKey    contextKey = "source"
	requestIDKey contextKey = "request_id"
)

// WithJobHandle annotates context with the extraction service's document handle.
func WithJobHandle(ctx context.Context, handle string) context.Context {
	if handle == "" {
		return ctx
	}
	return context.WithValue(ctx, jobHandleKey, handle)
}

// JobHandleFromContext extracts the document handle if present.
func JobHandleFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobHandleKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSource annotates context with the path the document arrived at.
func WithSource(ctx context.Context, path string) context.Context {
	if path == "" {
		return ctx
	}
	return context.WithValue(ctx, sourceKey, path)
}

// SourceFromContext returns the source path if present.
func SourceFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sourceKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
