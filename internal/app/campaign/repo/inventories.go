package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tavern.local/internal/app/campaign"
	"tavern.local/internal/platform/metrics"
	"tavern.local/internal/platform/store"
)

type InventoriesRepo struct {
	*store.Repository[*campaign.Inventory]
}

func NewInventoriesRepo(base *store.Repository[*campaign.Inventory]) *InventoriesRepo {
	return &InventoriesRepo{Repository: base}
}

// FindByCharacter 一个角色只有一份背包，没有就返回 ErrInventoryNotFound，
// 由 service 决定要不要懒建。
func (r *InventoriesRepo) FindByCharacter(ctx context.Context, characterID string) (*campaign.Inventory, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	var out campaign.Inventory
	err := r.Collection().FindOne(ctx, bson.M{"characterId": characterID, "isDeleted": false}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, campaign.ErrInventoryNotFound
	}
	if err != nil {
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "findByCharacter").Inc()
		return nil, err
	}
	return &out, nil
}
