package httpmiddleware

import (
	"net/http"
	"strings"

	"tavern.local/internal/platform/auth"
)

// parseBearer 解析 Authorization header 中的 Bearer token
// 返回 token 字符串，如果格式不正确返回空字符串
func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

// AuthRequired 要求请求必须携带有效的 JWT token
func AuthRequired(ts auth.TokenService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get("Authorization")
			if tokenStr == "" {
				abort(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			token := parseBearer(tokenStr)
			if token == "" {
				abort(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}
			claim, err := ts.Verify(token)
			if err != nil {
				abort(w, http.StatusUnauthorized, "invalid token")
				return
			}
			r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{
				UserID: claim.UserID,
				Role:   claim.Role,
			}))
			next.ServeHTTP(w, r)
		})
	}
}

// AuthOptional 可选认证，有 token 则解析，无 token 或 token 无效则跳过
func AuthOptional(ts auth.TokenService) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := parseBearer(r.Header.Get("Authorization"))
			if token != "" {
				if claim, err := ts.Verify(token); err == nil {
					r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{
						UserID: claim.UserID,
						Role:   claim.Role,
					}))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole 要求用户具有指定角色
func RequireRole(role string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.GetIdentity(r.Context())
			if !ok {
				abort(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if id.Role != role {
				abort(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
