package repo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/platform/metrics"
)

// NotificationsRepo 只读通知流。写入由 events.Consumer 批量完成，
// 不走通用仓储（通知没有软删和缓存的概念）。
type NotificationsRepo struct {
	coll *mongo.Collection
}

func NewNotificationsRepo(db *mongo.Database) *NotificationsRepo {
	return &NotificationsRepo{coll: db.Collection("notifications")}
}

func (r *NotificationsRepo) ListByCampaign(ctx context.Context, campaignID string, limit int) []*campaign.Notification {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctx, bson.M{"campaignId": campaignID},
		options.Find().SetSort(bson.D{{Key: "at", Value: -1}}).SetLimit(int64(limit)))
	if err != nil {
		slog.Error("list notifications failed", "campaign", campaignID, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "list").Inc()
		return []*campaign.Notification{}
	}
	out := []*campaign.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		slog.Error("list notifications decode failed", "err", err)
		return []*campaign.Notification{}
	}
	return out
}
