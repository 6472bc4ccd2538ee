package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tavern.local/internal/app/campaign/repo"
	"tavern.local/internal/platform/auth"
)

type UserRegistRequest struct {
	UserName string `json:"username"`
	PassWord string `json:"password"`
}

type UserRegistResponse struct {
	Id       string `json:"id"`
	UserName string `json:"username"`
}

func NewRegistUserHandler(r *repo.UsersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in UserRegistRequest
		if !decodeJSON(w, req, &in) {
			return
		}
		userID, err := r.RegistUser(req.Context(), in.UserName, in.PassWord)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, UserRegistResponse{
			Id:       userID,
			UserName: in.UserName,
		})
	}
}

type LoginRequest struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

func NewLoginHandler(usersRepo *repo.UsersRepo, ts auth.TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		var in LoginRequest
		if !decodeJSON(w, req, &in) {
			return
		}
		dbctx, cancel := context.WithTimeout(req.Context(), 1*time.Second)
		defer cancel()
		user, err := usersRepo.FindByUsername(dbctx, in.UserName)
		if err != nil {
			if errors.Is(err, repo.ErrUserNotFound) {
				abortWithError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			slog.Error("find user failed", "err", err)
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !usersRepo.CheckPassword(user, in.Password) {
			abortWithError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		token, err := ts.Sign(user.ID.Hex(), user.Role)
		if err != nil {
			abortWithError(w, http.StatusBadGateway, "sign failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func NewUserMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		id, ok := auth.GetIdentity(req.Context())
		if !ok {
			abortWithError(w, http.StatusInternalServerError, "missing identity")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"user_id": id.UserID,
			"role":    id.Role,
		})
	}
}
