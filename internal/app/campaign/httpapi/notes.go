package httpapi

import (
	"net/http"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/repo"
)

func NewCreateNoteHandler(notes *repo.NotesRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var in campaign.Note
		if !decodeJSON(w, r, &in) {
			return
		}
		in.CampaignID = r.PathValue("id")
		if err := campaign.ValidateNote(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		if _, ok := getMemberCampaign(w, r, campaigns, in.CampaignID, userID); !ok {
			return
		}
		in.AuthorID = userID
		created := notes.Create(r.Context(), &in)
		if created == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewListNotesHandler(notes *repo.NotesRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c, ok := getMemberCampaign(w, r, campaigns, r.PathValue("id"), userID)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, notes.ListByCampaign(r.Context(), c.HexID(), userID))
	}
}

func NewUpdateNoteHandler(notes *repo.NotesRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		existing := notes.GetByID(r.Context(), r.PathValue("id"))
		if existing == nil {
			abortWithError(w, http.StatusNotFound, "note not found")
			return
		}
		if existing.AuthorID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		var in campaign.Note
		if !decodeJSON(w, r, &in) {
			return
		}
		in.CampaignID = existing.CampaignID
		if err := campaign.ValidateNote(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		in.Base = existing.Base
		in.AuthorID = existing.AuthorID
		updated := notes.Update(r.Context(), &in)
		if updated == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDeleteNoteHandler(notes *repo.NotesRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		existing := notes.GetByID(r.Context(), r.PathValue("id"))
		if existing == nil {
			abortWithError(w, http.StatusNotFound, "note not found")
			return
		}
		if existing.AuthorID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		if !notes.LogicDelete(r.Context(), existing.HexID()) {
			abortWithError(w, http.StatusNotFound, "note not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
