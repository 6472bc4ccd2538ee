package httpmiddleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
)

// print stack trace for debug
func stack(message string) string {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:]) // skip first 3 caller

	var str strings.Builder
	str.WriteString(message + "\nTraceback:")
	for _, pc := range pcs[:n] {
		fn := runtime.FuncForPC(pc)
		file, line := fn.FileLine(pc)
		str.WriteString(fmt.Sprintf("\n\t%s:%d", file, line))
	}
	return str.String()
}

func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := wrapWriter(w)
			defer func() {
				if err := recover(); err != nil {
					message := fmt.Sprintf("%v", err)
					slog.Error("Error",
						"request_id", r.Header.Get(requestIDHeader),
						"method", r.Method,
						"path", r.URL.Path,
						"panic", err,
						"stack", stack(message),
					)
					if sw.written {
						return
					}
					abort(sw, http.StatusInternalServerError, "Internal Server Error")
				}
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
