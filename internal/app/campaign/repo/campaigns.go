package repo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/platform/metrics"
	"tavern.local/internal/platform/store"
)

type CampaignsRepo struct {
	*store.Repository[*campaign.Campaign]
}

func NewCampaignsRepo(base *store.Repository[*campaign.Campaign]) *CampaignsRepo {
	return &CampaignsRepo{Repository: base}
}

// FindByInviteCode 邀请码入团的入口查询。和 slug 一样是面向用户的
// 路径，错误要能区分 404 和 500。
func (r *CampaignsRepo) FindByInviteCode(ctx context.Context, code string) (*campaign.Campaign, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var out campaign.Campaign
	err := r.Collection().FindOne(ctx, bson.M{"inviteCode": code, "isDeleted": false}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, campaign.ErrInviteNotFound
	}
	if err != nil {
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "findByInvite").Inc()
		return nil, err
	}
	return &out, nil
}

// ListByMember 返回用户参与的所有团（含自己开的）。
func (r *CampaignsRepo) ListByMember(ctx context.Context, userID string) []*campaign.Campaign {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	filter := bson.M{
		"isDeleted": false,
		"$or":       []bson.M{{"ownerId": userID}, {"memberIds": userID}},
	}
	cur, err := r.Collection().Find(ctx, filter)
	if err != nil {
		slog.Error("list campaigns failed", "user", userID, "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "list").Inc()
		return []*campaign.Campaign{}
	}
	out := []*campaign.Campaign{}
	if err := cur.All(ctx, &out); err != nil {
		slog.Error("list campaigns decode failed", "err", err)
		return []*campaign.Campaign{}
	}
	return out
}
