// Package shield provides the HTTP hardening middleware for nexusd: API
// response headers, per-IP fixed-window rate limiting, JSON body caps, and
// request ID tracing.
//
// Usage:
//
//	r := chi.NewRouter()
//	r.Use(shield.APIHeaders)
//	r.Use(shield.RequestID)
//	r.Use(shield.MaxJSONBody(16 << 20))
//	limiter := shield.NewLimiter()
//	r.With(limiter.Middleware("analyze", 10, time.Minute)).Post("/api/analyze", h)
package shield

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

type contextKey string

// LoggerKey is the context key for the per-request structured logger.
const LoggerKey contextKey = "shield_logger"

// GetLogger retrieves the per-request logger from the context, or
// slog.Default() when none was set.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ClientIP returns the client address for rate-limit keying: the first
// X-Forwarded-For entry, else the host part of RemoteAddr, else "unknown".
// All unidentifiable clients share one bucket on purpose (fail-safe).
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); strings.TrimSpace(xff) != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}
