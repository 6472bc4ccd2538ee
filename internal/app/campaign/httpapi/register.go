package httpapi

import (
	"net/http"
	"time"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/app/campaign/events"
	"tavern.local/internal/app/campaign/repo"
	"tavern.local/internal/platform/auth"
	"tavern.local/internal/platform/httpmiddleware"
	"tavern.local/internal/platform/ratelimit"
)

// Deps 是本模块路由需要的全部依赖，cmd/api 组装后整体传入。
type Deps struct {
	Service       *campaign.Service
	Users         *repo.UsersRepo
	Campaigns     *repo.CampaignsRepo
	Characters    *repo.CharactersRepo
	Monsters      *repo.MonstersRepo
	Spells        *repo.SpellsRepo
	Notes         *repo.NotesRepo
	Sessions      *repo.SessionsRepo
	Inventories   *repo.InventoriesRepo
	Notifications *repo.NotificationsRepo
	Collector     events.Collector
	Tokens        auth.TokenService
	Limiter       *ratelimit.Limiter
}

// RegisterAPIRoutes 在 /api/v1 下挂载战役域 API。
// 除了注册和登录，全部要求登录态。
func RegisterAPIRoutes(mux *http.ServeMux, d Deps) {
	authed := func(h http.Handler) http.Handler {
		return httpmiddleware.Chain(h, httpmiddleware.AuthRequired(d.Tokens))
	}
	admin := func(h http.Handler) http.Handler {
		return httpmiddleware.Chain(h,
			httpmiddleware.AuthRequired(d.Tokens),
			httpmiddleware.RequireRole(auth.RoleAdmin))
	}

	// 注册 3次/分钟，登录 5次/分钟
	mux.Handle("POST /api/v1/register", httpmiddleware.Chain(
		NewRegistUserHandler(d.Users),
		httpmiddleware.RateLimit(d.Limiter, "register", 3, time.Minute)))
	mux.Handle("POST /api/v1/login", httpmiddleware.Chain(
		NewLoginHandler(d.Users, d.Tokens),
		httpmiddleware.RateLimit(d.Limiter, "login", 5, time.Minute)))
	mux.Handle("GET /api/v1/users/me", authed(NewUserMeHandler()))

	// 战役
	mux.Handle("POST /api/v1/campaigns", authed(NewCreateCampaignHandler(d.Service)))
	mux.Handle("GET /api/v1/campaigns", authed(NewMyCampaignsHandler(d.Campaigns)))
	mux.Handle("POST /api/v1/campaigns/join", authed(NewJoinCampaignHandler(d.Service)))
	mux.Handle("GET /api/v1/campaigns/{id}", authed(NewGetCampaignHandler(d.Campaigns)))
	mux.Handle("PUT /api/v1/campaigns/{id}", authed(NewUpdateCampaignHandler(d.Campaigns)))
	mux.Handle("DELETE /api/v1/campaigns/{id}", authed(NewDeleteCampaignHandler(d.Campaigns)))
	mux.Handle("DELETE /api/v1/campaigns/{id}/members/{userId}", authed(NewRemoveMemberHandler(d.Service)))
	mux.Handle("POST /api/v1/campaigns/{id}/characters/{characterId}", authed(NewAttachCharacterHandler(d.Service)))
	mux.Handle("DELETE /api/v1/campaigns/{id}/characters/{characterId}", authed(NewDetachCharacterHandler(d.Service)))
	mux.Handle("GET /api/v1/campaigns/{id}/notifications", authed(NewCampaignNotificationsHandler(d.Notifications, d.Campaigns)))

	// 角色与背包
	mux.Handle("POST /api/v1/characters", authed(NewCreateCharacterHandler(d.Characters)))
	mux.Handle("GET /api/v1/characters", authed(NewMyCharactersHandler(d.Characters)))
	mux.Handle("GET /api/v1/characters/{id}", authed(NewGetCharacterHandler(d.Characters)))
	mux.Handle("PUT /api/v1/characters/{id}", authed(NewUpdateCharacterHandler(d.Characters)))
	mux.Handle("DELETE /api/v1/characters/{id}", authed(NewDeleteCharacterHandler(d.Characters)))
	mux.Handle("POST /api/v1/characters/{id}/transfer", authed(NewTransferCurrencyHandler(d.Service)))
	mux.Handle("GET /api/v1/characters/{id}/inventory", authed(NewGetInventoryHandler(d.Inventories, d.Characters)))
	mux.Handle("POST /api/v1/characters/{id}/inventory/items", authed(NewAddItemHandler(d.Service)))
	mux.Handle("DELETE /api/v1/characters/{id}/inventory/items/{name}", authed(NewRemoveItemHandler(d.Service)))

	// 图鉴
	mux.Handle("GET /api/v1/campaigns/{id}/monsters", authed(NewListMonstersHandler(d.Monsters, d.Campaigns)))
	mux.Handle("POST /api/v1/campaigns/{id}/monsters", authed(NewCreateMonsterHandler(d.Monsters, d.Campaigns)))
	mux.Handle("DELETE /api/v1/monsters/{id}", authed(NewDeleteMonsterHandler(d.Monsters, d.Campaigns)))
	mux.Handle("GET /api/v1/spells", authed(NewListSpellsHandler(d.Spells)))

	// 笔记
	mux.Handle("POST /api/v1/campaigns/{id}/notes", authed(NewCreateNoteHandler(d.Notes, d.Campaigns)))
	mux.Handle("GET /api/v1/campaigns/{id}/notes", authed(NewListNotesHandler(d.Notes, d.Campaigns)))
	mux.Handle("PUT /api/v1/notes/{id}", authed(NewUpdateNoteHandler(d.Notes)))
	mux.Handle("DELETE /api/v1/notes/{id}", authed(NewDeleteNoteHandler(d.Notes)))

	// 团期
	mux.Handle("POST /api/v1/campaigns/{id}/sessions", authed(NewCreateSessionHandler(d.Sessions, d.Campaigns, d.Collector)))
	mux.Handle("GET /api/v1/campaigns/{id}/sessions", authed(NewListSessionsHandler(d.Sessions, d.Campaigns)))
	mux.Handle("PUT /api/v1/sessions/{id}", authed(NewUpdateSessionHandler(d.Sessions, d.Campaigns)))
	mux.Handle("DELETE /api/v1/sessions/{id}", authed(NewDeleteSessionHandler(d.Sessions, d.Campaigns)))

	// 需要管理员的路由：全局图鉴维护
	mux.Handle("POST /api/v1/admin/monsters", admin(NewCreateGlobalMonsterHandler(d.Monsters)))
	mux.Handle("POST /api/v1/admin/spells", admin(NewCreateSpellHandler(d.Spells)))
	mux.Handle("DELETE /api/v1/admin/spells/{id}", admin(NewDeleteSpellHandler(d.Spells)))
}
