package transport

import (
	"context"
)

type (
	contextKey string
)

const (
	ContextRequestIDKey contextKey = "requestID"
)

// WithRequestID returns a context carrying the correlation id stamped on the requests made with it
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextRequestIDKey, requestID)
}

func getRequestID(ctx context.Context) string {
	if v := ctx.Value(ContextRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
