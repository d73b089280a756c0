package shield

import "net/http"

// APIHeaders sets the response headers every nexusd API response must carry:
// analysis verdicts and auth errors are never cacheable, and bodies are
// always JSON so sniffing is disabled.
func APIHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// MaxJSONBody limits the request body size for JSON POST bodies. The image
// payload ceiling is enforced separately on the decoded field; this is the
// outer transport bound.
func MaxJSONBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
