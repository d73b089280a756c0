package shield

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/nexustrade/nexusd/kit"
)

// RequestID assigns a random ID to each request and injects it into the
// context, the X-Request-ID response header, and a per-request structured
// logger. The client IP is resolved once here and carried in context so
// handlers and the event logger agree on it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 4)
		rand.Read(buf)
		id := hex.EncodeToString(buf)

		ip := ClientIP(r)
		ctx := kit.WithRequestID(r.Context(), id)
		ctx = kit.WithClientIP(ctx, ip)
		w.Header().Set("X-Request-ID", id)

		logger := slog.Default().With(
			"request_id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"ip", ip,
		)
		ctx = context.WithValue(ctx, LoggerKey, logger)
		logger.Info("request")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
