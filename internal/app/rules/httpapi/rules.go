package httpapi

import (
	"net/http"
	"strconv"

	"tavern.local/internal/app/rules"
)

// NewListRulesHandler 规则列表/搜索。所有筛选参数都是可选的，
// 畸形的 cursor 和 limit 不报错，按默认值处理。
func NewListRulesHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := rules.QueryOptions{
			Category: q.Get("category"),
			Tag:      q.Get("tag"),
			Source:   q.Get("source"),
			Search:   q.Get("q"),
			Cursor:   q.Get("cursor"),
		}
		if n, err := strconv.Atoi(q.Get("limit")); err == nil {
			opts.Limit = n
		}
		res, err := svc.List(r.Context(), opts)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func NewGetRuleHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rule, err := svc.GetBySlug(r.Context(), r.PathValue("slug"))
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rule)
	}
}

func NewRuleStatsHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func NewCreateRuleHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rules.Rule
		if !decodeJSON(w, r, &in) {
			return
		}
		created, err := svc.Create(r.Context(), &in)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewUpdateRuleHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rules.Rule
		if !decodeJSON(w, r, &in) {
			return
		}
		updated, err := svc.Update(r.Context(), r.PathValue("slug"), &in)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDeleteRuleHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), r.PathValue("slug")); err != nil {
			abortDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
