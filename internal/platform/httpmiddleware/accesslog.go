package httpmiddleware

import (
	"log/slog"
	"net/http"
	"time"
)

func AccessLog() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrapWriter(w)

			next.ServeHTTP(sw, r)

			slog.Info("access",
				"request_id", r.Header.Get(requestIDHeader),
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.Status(),
				"bytes", sw.Size(),
				"latency_ms", time.Since(start).Milliseconds())
		})
	}
}
