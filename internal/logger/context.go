package logger

import "context"

// KeyRequestID is the attribute request IDs are logged under.
const KeyRequestID = "request_id"

type requestIDKey struct{}

// WithRequestID returns ctx carrying id. An empty id leaves ctx unchanged so
// an upstream ID is never masked.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
