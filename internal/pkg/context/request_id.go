// Package context carries per-request values that cross package
// boundaries, so transport and logging agree on the request id without
// importing each other.
package context

import "context"

type ctxKeyRequestID struct{}

// WithRequestID stores the request id for downstream log enrichment.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// GetRequestID returns the stored request id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID{}).(string); ok {
		return s
	}
	return ""
}
