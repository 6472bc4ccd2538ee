package repo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/platform/metrics"
	"tavern.local/internal/platform/store"
)

const listTimeout = 3 * time.Second

// listByField 按单字段等值过滤列出未删除文档。
// 和通用仓储同一套降级约定：查不动就返回空列表并记日志。
func listByField[T store.Doc](ctx context.Context, r *store.Repository[T], field, value string, opts ...*options.FindOptions) []T {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{field: value, "isDeleted": false}
	cur, err := r.Collection().Find(ctx, filter, opts...)
	if err != nil {
		slog.Error("list failed", "collection", r.Collection().Name(), "field", field, "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "list").Inc()
		return []T{}
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		slog.Error("list decode failed", "collection", r.Collection().Name(), "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "list").Inc()
		return []T{}
	}
	return out
}

// CharactersRepo / MonstersRepo / SpellsRepo / NotesRepo / SessionsRepo
// 都是通用仓储加一两个领域查询的薄封装。

type CharactersRepo struct {
	*store.Repository[*campaign.Character]
}

func NewCharactersRepo(base *store.Repository[*campaign.Character]) *CharactersRepo {
	return &CharactersRepo{Repository: base}
}

func (r *CharactersRepo) ListByCampaign(ctx context.Context, campaignID string) []*campaign.Character {
	return listByField(ctx, r.Repository, "campaignId", campaignID)
}

func (r *CharactersRepo) ListByOwner(ctx context.Context, ownerID string) []*campaign.Character {
	return listByField(ctx, r.Repository, "ownerId", ownerID)
}

type MonstersRepo struct {
	*store.Repository[*campaign.Monster]
}

func NewMonstersRepo(base *store.Repository[*campaign.Monster]) *MonstersRepo {
	return &MonstersRepo{Repository: base}
}

// ListForCampaign 返回团私有图鉴加全局图鉴。
func (r *MonstersRepo) ListForCampaign(ctx context.Context, campaignID string) []*campaign.Monster {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{
		"isDeleted":  false,
		"campaignId": bson.M{"$in": []string{campaignID, ""}},
	}
	cur, err := r.Collection().Find(ctx, filter)
	if err != nil {
		slog.Error("list monsters failed", "campaign", campaignID, "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "list").Inc()
		return []*campaign.Monster{}
	}
	out := []*campaign.Monster{}
	if err := cur.All(ctx, &out); err != nil {
		slog.Error("list monsters decode failed", "err", err)
		return []*campaign.Monster{}
	}
	return out
}

type SpellsRepo struct {
	*store.Repository[*campaign.Spell]
}

func NewSpellsRepo(base *store.Repository[*campaign.Spell]) *SpellsRepo {
	return &SpellsRepo{Repository: base}
}

// ListByLevel level < 0 时返回全部。
func (r *SpellsRepo) ListByLevel(ctx context.Context, level int) []*campaign.Spell {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{"isDeleted": false}
	if level >= 0 {
		filter["level"] = level
	}
	cur, err := r.Collection().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "level", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		slog.Error("list spells failed", "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "list").Inc()
		return []*campaign.Spell{}
	}
	out := []*campaign.Spell{}
	if err := cur.All(ctx, &out); err != nil {
		slog.Error("list spells decode failed", "err", err)
		return []*campaign.Spell{}
	}
	return out
}

type NotesRepo struct {
	*store.Repository[*campaign.Note]
}

func NewNotesRepo(base *store.Repository[*campaign.Note]) *NotesRepo {
	return &NotesRepo{Repository: base}
}

// ListByCampaign 返回团内对 viewer 可见的笔记：共享的 + 自己写的。
func (r *NotesRepo) ListByCampaign(ctx context.Context, campaignID, viewerID string) []*campaign.Note {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{
		"campaignId": campaignID,
		"isDeleted":  false,
		"$or":        []bson.M{{"shared": true}, {"authorId": viewerID}},
	}
	cur, err := r.Collection().Find(ctx, filter)
	if err != nil {
		slog.Error("list notes failed", "campaign", campaignID, "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "list").Inc()
		return []*campaign.Note{}
	}
	out := []*campaign.Note{}
	if err := cur.All(ctx, &out); err != nil {
		slog.Error("list notes decode failed", "err", err)
		return []*campaign.Note{}
	}
	return out
}

type SessionsRepo struct {
	*store.Repository[*campaign.Session]
}

func NewSessionsRepo(base *store.Repository[*campaign.Session]) *SessionsRepo {
	return &SessionsRepo{Repository: base}
}

func (r *SessionsRepo) ListByCampaign(ctx context.Context, campaignID string) []*campaign.Session {
	return listByField(ctx, r.Repository, "campaignId", campaignID,
		options.Find().SetSort(bson.D{{Key: "number", Value: -1}}))
}

// NextSessionNumber 下一期的期号（当前最大期号 + 1）。
func (r *SessionsRepo) NextSessionNumber(ctx context.Context, campaignID string) int {
	sessions := r.ListByCampaign(ctx, campaignID)
	max := 0
	for _, s := range sessions {
		if s.Number > max {
			max = s.Number
		}
	}
	return max + 1
}
