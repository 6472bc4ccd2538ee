package httpapi

import (
	"net/http"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/events"
	"tavern.local/internal/app/campaign/repo"
)

// 团期排期由 GM 维护，期号自动递增。

func NewCreateSessionHandler(sessions *repo.SessionsRepo, campaigns *repo.CampaignsRepo, collector events.Collector) http.HandlerFunc {
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
		var in campaign.Session
		if !decodeJSON(w, r, &in) {
			return
		}
		in.CampaignID = c.HexID()
		if err := campaign.ValidateSession(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		if in.Number <= 0 {
			in.Number = sessions.NextSessionNumber(r.Context(), c.HexID())
		}
		created := sessions.Create(r.Context(), &in)
		if created == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if collector != nil {
			collector.Collect(events.Event{
				Type:       events.TypeSessionPlanned,
				CampaignID: c.HexID(),
				ActorID:    userID,
				Subject:    created.Title,
			})
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewListSessionsHandler(sessions *repo.SessionsRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c, ok := getMemberCampaign(w, r, campaigns, r.PathValue("id"), userID)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, sessions.ListByCampaign(r.Context(), c.HexID()))
	}
}

func NewUpdateSessionHandler(sessions *repo.SessionsRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		existing := sessions.GetByID(r.Context(), r.PathValue("id"))
		if existing == nil {
			abortWithError(w, http.StatusNotFound, "session not found")
			return
		}
		c := campaigns.GetByID(r.Context(), existing.CampaignID)
		if c == nil || c.OwnerID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		var in campaign.Session
		if !decodeJSON(w, r, &in) {
			return
		}
		in.Base = existing.Base
		in.CampaignID = existing.CampaignID
		if in.Number <= 0 {
			in.Number = existing.Number
		}
		updated := sessions.Update(r.Context(), &in)
		if updated == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDeleteSessionHandler(sessions *repo.SessionsRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		existing := sessions.GetByID(r.Context(), r.PathValue("id"))
		if existing == nil {
			abortWithError(w, http.StatusNotFound, "session not found")
			return
		}
		c := campaigns.GetByID(r.Context(), existing.CampaignID)
		if c == nil || c.OwnerID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		if !sessions.LogicDelete(r.Context(), existing.HexID()) {
			abortWithError(w, http.StatusNotFound, "session not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
