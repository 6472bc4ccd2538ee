package httpmiddleware

import (
	"encoding/json"
	"net/http"
)

// Middleware 是标准库风格的处理器装饰器。
type Middleware func(http.Handler) http.Handler

// Chain 按声明顺序套中间件：第一个在最外层。
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusWriter 记录响应状态码和字节数，给访问日志和指标用。
type statusWriter struct {
	http.ResponseWriter
	status  int
	size    int
	written bool
}

func wrapWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

func (w *statusWriter) Status() int { return w.status }
func (w *statusWriter) Size() int   { return w.size }

func abort(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
