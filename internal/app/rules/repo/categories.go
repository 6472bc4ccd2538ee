package repo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tavern.local/internal/app/rules"
	"tavern.local/internal/platform/metrics"
	"tavern.local/internal/platform/store"
)

// CategoriesRepo 分类仓储。量级很小（几十条），
// 排序在 service 内存里做就够了。
type CategoriesRepo struct {
	*store.Repository[*rules.RuleCategory]
}

func NewCategoriesRepo(base *store.Repository[*rules.RuleCategory]) *CategoriesRepo {
	return &CategoriesRepo{Repository: base}
}

func (r *CategoriesRepo) ExistsSlug(ctx context.Context, slug string, excludeID string) bool {
	filter := bson.M{"slug": slug, "isDeleted": false}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := r.Collection().CountDocuments(ctx, filter)
	if err != nil {
		slog.Error("count category slug failed", "slug", slug, "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "existsSlug").Inc()
		return false
	}
	return n > 0
}
