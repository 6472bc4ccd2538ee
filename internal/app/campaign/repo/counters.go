package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counters 基于 counters 集合提供单调递增序号。
// FindOneAndUpdate + $inc 是原子的，多实例并发拿号不会重复。
type Counters struct {
	coll *mongo.Collection
}

func NewCounters(db *mongo.Database) *Counters {
	return &Counters{coll: db.Collection("counters")}
}

func (c *Counters) Next(ctx context.Context, name string) (uint64, error) {
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := c.coll.FindOneAndUpdate(dbctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return uint64(doc.Seq), nil
}
