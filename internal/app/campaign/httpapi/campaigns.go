package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/repo"
)

func NewCreateCampaignHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var in campaign.Campaign
		if !decodeJSON(w, r, &in) {
			return
		}
		created, err := svc.CreateCampaign(r.Context(), &in, userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewMyCampaignsHandler(campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, campaigns.ListByMember(r.Context(), userID))
	}
}

// getMemberCampaign 取团并做成员门禁，失败时已写响应。
func getMemberCampaign(w http.ResponseWriter, r *http.Request, campaigns *repo.CampaignsRepo, id, userID string) (*campaign.Campaign, bool) {
	c := campaigns.GetByID(r.Context(), id)
	if c == nil {
		abortWithError(w, http.StatusNotFound, campaign.ErrCampaignNotFound.Error())
		return nil, false
	}
	if !c.HasMember(userID) {
		abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
		return nil, false
	}
	return c, true
}

func NewGetCampaignHandler(campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c, ok := getMemberCampaign(w, r, campaigns, r.PathValue("id"), userID)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

type CampaignUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func NewUpdateCampaignHandler(campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c := campaigns.GetByID(r.Context(), r.PathValue("id"))
		if c == nil {
			abortWithError(w, http.StatusNotFound, campaign.ErrCampaignNotFound.Error())
			return
		}
		if c.OwnerID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		var in CampaignUpdateRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		if strings.TrimSpace(in.Name) != "" {
			c.Name = strings.TrimSpace(in.Name)
		}
		if in.Description != "" {
			c.Description = in.Description
		}
		updated := campaigns.Update(r.Context(), c)
		if updated == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDeleteCampaignHandler(campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c := campaigns.GetByID(r.Context(), r.PathValue("id"))
		if c == nil {
			abortWithError(w, http.StatusNotFound, campaign.ErrCampaignNotFound.Error())
			return
		}
		if c.OwnerID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		if !campaigns.LogicDelete(r.Context(), c.HexID()) {
			abortWithError(w, http.StatusNotFound, campaign.ErrCampaignNotFound.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type JoinRequest struct {
	InviteCode string `json:"invite_code"`
}

func NewJoinCampaignHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var in JoinRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		joined, err := svc.JoinByInviteCode(r.Context(), in.InviteCode, userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, joined)
	}
}

func NewRemoveMemberHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		updated, err := svc.RemoveMember(r.Context(), r.PathValue("id"), r.PathValue("userId"), userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewAttachCharacterHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		updated, err := svc.AttachCharacter(r.Context(), r.PathValue("id"), r.PathValue("characterId"), userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDetachCharacterHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		updated, err := svc.DetachCharacter(r.Context(), r.PathValue("id"), r.PathValue("characterId"), userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewCampaignNotificationsHandler(notifications *repo.NotificationsRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c, ok := getMemberCampaign(w, r, campaigns, r.PathValue("id"), userID)
		if !ok {
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, notifications.ListByCampaign(r.Context(), c.HexID(), limit))
	}
}
