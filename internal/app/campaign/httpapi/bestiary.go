package httpapi

import (
	"net/http"
	"strconv"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/repo"
)

// 图鉴：团私有怪物由 GM 维护；全局怪物和法术归管理员，
// 路由挂在 admin 分组下（见 register.go）。

func NewCreateMonsterHandler(monsters *repo.MonstersRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
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
		var in campaign.Monster
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := campaign.ValidateMonster(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		in.CampaignID = c.HexID()
		created := monsters.Create(r.Context(), &in)
		if created == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewListMonstersHandler(monsters *repo.MonstersRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		c, ok := getMemberCampaign(w, r, campaigns, r.PathValue("id"), userID)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, monsters.ListForCampaign(r.Context(), c.HexID()))
	}
}

// NewCreateGlobalMonsterHandler 全局图鉴条目，admin 专用。
func NewCreateGlobalMonsterHandler(monsters *repo.MonstersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in campaign.Monster
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := campaign.ValidateMonster(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		in.CampaignID = ""
		created := monsters.Create(r.Context(), &in)
		if created == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewDeleteMonsterHandler(monsters *repo.MonstersRepo, campaigns *repo.CampaignsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		m := monsters.GetByID(r.Context(), r.PathValue("id"))
		if m == nil {
			abortWithError(w, http.StatusNotFound, "monster not found")
			return
		}
		if m.CampaignID == "" {
			// 全局条目只有 admin 路由能删，这里一律拒绝
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		c := campaigns.GetByID(r.Context(), m.CampaignID)
		if c == nil || c.OwnerID != userID {
			abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
			return
		}
		if !monsters.LogicDelete(r.Context(), m.HexID()) {
			abortWithError(w, http.StatusNotFound, "monster not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func NewListSpellsHandler(spells *repo.SpellsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		level := -1
		if n, err := strconv.Atoi(r.URL.Query().Get("level")); err == nil {
			level = n
		}
		writeJSON(w, http.StatusOK, spells.ListByLevel(r.Context(), level))
	}
}

func NewCreateSpellHandler(spells *repo.SpellsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in campaign.Spell
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := campaign.ValidateSpell(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		created := spells.Create(r.Context(), &in)
		if created == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewDeleteSpellHandler(spells *repo.SpellsRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !spells.LogicDelete(r.Context(), r.PathValue("id")) {
			abortWithError(w, http.StatusNotFound, "spell not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
