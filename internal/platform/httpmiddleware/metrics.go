package httpmiddleware

import (
	"net/http"
	"strconv"
	"time"

	"tavern.local/internal/platform/metrics"
)

// Metrics 记录请求量、时延和在途请求数。
// 路由标签用 mux 的注册 pattern 而不是原始 path，避免标签基数爆炸。
func Metrics(mux *http.ServeMux) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.HTTPInflightRequests.Inc()       //正在处理的请求数+1
			defer metrics.HTTPInflightRequests.Dec() //请求处理结束

			routePattern := "UNMATCHED"
			if _, pattern := mux.Handler(r); pattern != "" {
				routePattern = pattern
			}

			sw := wrapWriter(w)
			defer func() {
				duration := time.Since(start).Seconds()
				metrics.HTTPRequestsTotal.WithLabelValues(r.Method, routePattern, strconv.Itoa(sw.Status())).Inc()
				metrics.HTTPRequestDurationSeconds.WithLabelValues(r.Method, routePattern).Observe(duration)
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
