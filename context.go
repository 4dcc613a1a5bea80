package shopauth

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a correlation ID to ctx. The transport forwards it
// on every backend call (X-Request-ID by default) and the audit dispatcher
// records it; when absent, the transport generates a fresh UUID per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
