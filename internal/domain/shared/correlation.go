package shared

import "context"

type correlationIDKey struct{}

// WithCorrelationID attaches a request correlation ID to the context so
// services can stamp it onto ledger events without depending on the HTTP
// layer.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the correlation ID from the context, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}
