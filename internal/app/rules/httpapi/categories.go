package httpapi

import (
	"net/http"

	"tavern.local/internal/app/rules"
)

func NewListCategoriesHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.ListCategories(r.Context()))
	}
}

func NewCreateCategoryHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rules.RuleCategory
		if !decodeJSON(w, r, &in) {
			return
		}
		created, err := svc.CreateCategory(r.Context(), &in)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewUpdateCategoryHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in rules.RuleCategory
		if !decodeJSON(w, r, &in) {
			return
		}
		updated, err := svc.UpdateCategory(r.Context(), r.PathValue("id"), &in)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDeleteCategoryHandler(svc *rules.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
			abortDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
