package shield

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Limiter is a process-local fixed-window request counter. One window per
// key; a new window starts on the first request after the previous one
// elapses. It is deliberately NOT sliding: a client can burst up to twice the
// limit across a window boundary. Best-effort abuse guard, not a correctness
// guarantee — state is not shared across instances.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

// NewLimiter creates an empty limiter. Call StartGC to reclaim expired
// windows in long-running processes.
func NewLimiter() *Limiter {
	return &Limiter{
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it fits the budget of
// limit requests per windowWidth. The check and the increment happen under
// one lock so two concurrent requests can never both consume the last slot.
// Never fails: on deny the caller must answer 429 and do no further work.
func (l *Limiter) Allow(key string, limit int, windowWidth time.Duration) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) > windowWidth {
		l.windows[key] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= limit
}

// StartGC drops windows older than maxAge every interval until done closes.
// Purely a memory bound; correctness never depends on GC running.
func (l *Limiter) StartGC(done <-chan struct{}, interval, maxAge time.Duration) {
	tick := time.NewTicker(interval)
	go func() {
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				l.gc(maxAge)
			}
		}
	}()
}

func (l *Limiter) gc(maxAge time.Duration) {
	cutoff := l.now().Add(-maxAge)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if w.start.Before(cutoff) {
			delete(l.windows, key)
		}
	}
}

// Middleware enforces the limit for one named handler, keyed
// "{handler}:{clientIP}". Denied requests get a 429 JSON envelope with
// Retry-After and the chain stops before any costly work.
func (l *Limiter) Middleware(handler string, limit int, windowWidth time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if l.Allow(handler+":"+ip, limit, windowWidth) {
				next.ServeHTTP(w, r)
				return
			}

			slog.Warn("ratelimit: request blocked", "ip", ip, "handler", handler)

			w.Header().Set("Retry-After", strconv.Itoa(int(windowWidth.Seconds())))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Muitas requisições. Tente novamente em instantes.",
			})
		})
	}
}
