package httpapi

import (
	"net/http"
	"time"

	"tavern.local/internal/app/rules"
	"tavern.local/internal/platform/auth"
	"tavern.local/internal/platform/httpmiddleware"
	"tavern.local/internal/platform/ratelimit"
)

// RegisterAPIRoutes 在 /api/v1 下挂载规则 API。
//
// 约定：本包只做“传输层（transport）”工作；领域逻辑放在 internal/app/rules。
// cmd/api 只负责组装和挂载，各业务模块自己提供 Register*Routes，
// 避免路由散落在 main.go。
func RegisterAPIRoutes(mux *http.ServeMux, svc *rules.Service, ts auth.TokenService, limiter *ratelimit.Limiter) {
	public := func(h http.Handler) http.Handler {
		return httpmiddleware.Chain(h, httpmiddleware.AuthOptional(ts))
	}
	// 搜索是最重的查询，单独限流 60次/分钟
	search := func(h http.Handler) http.Handler {
		return httpmiddleware.Chain(h,
			httpmiddleware.AuthOptional(ts),
			httpmiddleware.RateLimit(limiter, "rules", 60, time.Minute))
	}
	admin := func(h http.Handler) http.Handler {
		return httpmiddleware.Chain(h,
			httpmiddleware.AuthRequired(ts),
			httpmiddleware.RequireRole(auth.RoleAdmin))
	}

	// 无需登录的路由
	mux.Handle("GET /api/v1/rules", search(NewListRulesHandler(svc)))
	mux.Handle("GET /api/v1/rules/stats", public(NewRuleStatsHandler(svc)))
	mux.Handle("GET /api/v1/rules/{slug}", public(NewGetRuleHandler(svc)))
	mux.Handle("GET /api/v1/rule-categories", public(NewListCategoriesHandler(svc)))

	// 需要管理员的路由
	mux.Handle("POST /api/v1/rules", admin(NewCreateRuleHandler(svc)))
	mux.Handle("PUT /api/v1/rules/{slug}", admin(NewUpdateRuleHandler(svc)))
	mux.Handle("DELETE /api/v1/rules/{slug}", admin(NewDeleteRuleHandler(svc)))
	mux.Handle("POST /api/v1/rule-categories", admin(NewCreateCategoryHandler(svc)))
	mux.Handle("PUT /api/v1/rule-categories/{id}", admin(NewUpdateCategoryHandler(svc)))
	mux.Handle("DELETE /api/v1/rule-categories/{id}", admin(NewDeleteCategoryHandler(svc)))
}
