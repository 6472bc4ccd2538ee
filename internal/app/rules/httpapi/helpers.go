package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tavern.local/internal/app/rules"
)

// handler 只做“翻译”：HTTP <-> 领域（参数解析、错误映射、响应格式）。
// 领域逻辑都在 internal/app/rules，这里不堆业务。

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func abortWithError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decodeJSON 解析请求体，失败时写 400 并返回 false。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		abortWithError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// abortDomainError 把领域错误翻译成 HTTP 状态码。
// 未识别的错误一律 500，不往外漏内部细节。
func abortDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rules.ErrRuleNotFound), errors.Is(err, rules.ErrCategoryNotFound):
		abortWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rules.ErrSlugTaken):
		abortWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, rules.ErrMissingField),
		errors.Is(err, rules.ErrInvalidSlug),
		errors.Is(err, rules.ErrUnknownCategory):
		abortWithError(w, http.StatusBadRequest, err.Error())
	default:
		abortWithError(w, http.StatusInternalServerError, "internal error")
	}
}
