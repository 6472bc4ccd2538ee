package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/repo"
	"tavern.local/internal/platform/auth"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func abortWithError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		abortWithError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

// mustGetUserID 从上下文中获取用户ID，失败时返回错误响应
// 返回 userID 和是否成功，失败时已写入错误响应
func mustGetUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := auth.GetIdentity(r.Context())
	if !ok {
		abortWithError(w, http.StatusUnauthorized, "not login")
		return "", false
	}
	return identity.UserID, true
}

func abortDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrCampaignNotFound),
		errors.Is(err, campaign.ErrCharacterNotFound),
		errors.Is(err, campaign.ErrInventoryNotFound),
		errors.Is(err, campaign.ErrInviteNotFound),
		errors.Is(err, campaign.ErrItemNotFound),
		errors.Is(err, repo.ErrUserNotFound):
		abortWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, campaign.ErrForbidden):
		abortWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, campaign.ErrAlreadyMember),
		errors.Is(err, campaign.ErrInsufficientFunds),
		errors.Is(err, repo.ErrUserAlreadyExists):
		abortWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, campaign.ErrMissingField),
		errors.Is(err, campaign.ErrNotMember),
		errors.Is(err, campaign.ErrBadQuantity),
		errors.Is(err, repo.ErrInvalidUsername),
		errors.Is(err, repo.ErrInvalidPassword):
		abortWithError(w, http.StatusBadRequest, err.Error())
	default:
		abortWithError(w, http.StatusInternalServerError, "internal error")
	}
}
