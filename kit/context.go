// Package kit carries request-scoped values through context for the nexusd
// handler chain. Values are written by shield middleware and read by handlers
// and the event logger.
package kit

import "context"

type contextKey string

const (
	RequestIDKey contextKey = "kit_request_id"
	ClientIPKey  contextKey = "kit_client_ip"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPKey, ip)
}

// GetClientIP returns the client IP recorded by the shield middleware, or
// "unknown" when none was recorded. Unidentifiable clients deliberately share
// one rate-limit bucket.
func GetClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(ClientIPKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
