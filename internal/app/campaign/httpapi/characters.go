package httpapi

import (
	"net/http"
	"strconv"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/repo"
)

func NewCreateCharacterHandler(characters *repo.CharactersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var in campaign.Character
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := campaign.ValidateCharacter(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		in.OwnerID = userID
		in.CampaignID = "" // 挂团走 attach，不在建卡时做
		created := characters.Create(r.Context(), &in)
		if created == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func NewMyCharactersHandler(characters *repo.CharactersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, characters.ListByOwner(r.Context(), userID))
	}
}

// getOwnedCharacter 取角色并做所有者门禁，失败时已写响应。
func getOwnedCharacter(w http.ResponseWriter, r *http.Request, characters *repo.CharactersRepo, id, userID string) (*campaign.Character, bool) {
	ch := characters.GetByID(r.Context(), id)
	if ch == nil {
		abortWithError(w, http.StatusNotFound, campaign.ErrCharacterNotFound.Error())
		return nil, false
	}
	if ch.OwnerID != userID {
		abortWithError(w, http.StatusForbidden, campaign.ErrForbidden.Error())
		return nil, false
	}
	return ch, true
}

func NewGetCharacterHandler(characters *repo.CharactersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		ch, ok := getOwnedCharacter(w, r, characters, r.PathValue("id"), userID)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, ch)
	}
}

func NewUpdateCharacterHandler(characters *repo.CharactersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		existing, ok := getOwnedCharacter(w, r, characters, r.PathValue("id"), userID)
		if !ok {
			return
		}
		var in campaign.Character
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := campaign.ValidateCharacter(&in); err != nil {
			abortDomainError(w, err)
			return
		}
		// 所有权、归属团和钱袋不接受整卡替换，钱只能走转账
		in.Base = existing.Base
		in.OwnerID = existing.OwnerID
		in.CampaignID = existing.CampaignID
		in.Currency = existing.Currency
		updated := characters.Update(r.Context(), &in)
		if updated == nil {
			abortWithError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func NewDeleteCharacterHandler(characters *repo.CharactersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		ch, ok := getOwnedCharacter(w, r, characters, r.PathValue("id"), userID)
		if !ok {
			return
		}
		if !characters.LogicDelete(r.Context(), ch.HexID()) {
			abortWithError(w, http.StatusNotFound, campaign.ErrCharacterNotFound.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type TransferRequest struct {
	ToID   string            `json:"to_id"`
	Amount campaign.Currency `json:"amount"`
}

func NewTransferCurrencyHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var in TransferRequest
		if !decodeJSON(w, r, &in) {
			return
		}
		if err := svc.TransferCurrency(r.Context(), r.PathValue("id"), in.ToID, in.Amount, userID); err != nil {
			abortDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func NewGetInventoryHandler(inventories *repo.InventoriesRepo, characters *repo.CharactersRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		ch, ok := getOwnedCharacter(w, r, characters, r.PathValue("id"), userID)
		if !ok {
			return
		}
		inv, err := inventories.FindByCharacter(r.Context(), ch.HexID())
		if err != nil {
			// 还没往背包放过东西，返回空背包而不是 404
			writeJSON(w, http.StatusOK, &campaign.Inventory{CharacterID: ch.HexID(), Items: []campaign.Item{}})
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func NewAddItemHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		var in campaign.Item
		if !decodeJSON(w, r, &in) {
			return
		}
		inv, err := svc.AddItem(r.Context(), r.PathValue("id"), in, userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}

func NewRemoveItemHandler(svc *campaign.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := mustGetUserID(w, r)
		if !ok {
			return
		}
		quantity := 1
		if n, err := strconv.Atoi(r.URL.Query().Get("quantity")); err == nil {
			quantity = n
		}
		inv, err := svc.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("name"), quantity, userID)
		if err != nil {
			abortDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, inv)
	}
}
