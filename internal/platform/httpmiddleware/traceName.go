package httpmiddleware

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

func TraceName(mux *http.ServeMux) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, pattern := mux.Handler(r); pattern != "" {
				span := trace.SpanFromContext(r.Context())
				span.SetName(r.Method + " " + pattern)
			}
			next.ServeHTTP(w, r)
		})
	}
}
