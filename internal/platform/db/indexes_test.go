package db

import (
	"context"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	database := client.Database("tavern_test_indexes")
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return database
}

// slug 唯一索引只约束未删除的文档：软删除后把同名 slug 建回来
// 是合法操作，不能被索引挡住；活跃文档之间的重复仍要被拒绝。
func TestSlugUniqueIndexIgnoresSoftDeleted(t *testing.T) {
	database := testDatabase(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	EnsureIndexes(ctx, database, IndexOptions{TextIndex: false})
	coll := database.Collection("rules")

	doc := func(slug string, deleted bool) bson.M {
		return bson.M{"slug": slug, "isDeleted": deleted}
	}

	first, err := coll.InsertOne(ctx, doc("grapple", false))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	// 活跃文档同 slug：必须撞唯一索引
	if _, err := coll.InsertOne(ctx, doc("grapple", false)); !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("duplicate live slug: got %v, want duplicate key error", err)
	}

	// 软删除后再建同名：必须成功
	_, err = coll.UpdateByID(ctx, first.InsertedID, bson.M{"$set": bson.M{"isDeleted": true}})
	if err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := coll.InsertOne(ctx, doc("grapple", false)); err != nil {
		t.Fatalf("recreate after soft delete: %v", err)
	}
}

func TestCategorySlugUniqueIndexIgnoresSoftDeleted(t *testing.T) {
	database := testDatabase(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	EnsureIndexes(ctx, database, IndexOptions{TextIndex: false})
	coll := database.Collection("rule_categories")

	first, err := coll.InsertOne(ctx, bson.M{"slug": "combat", "isDeleted": false})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := coll.UpdateByID(ctx, first.InsertedID, bson.M{"$set": bson.M{"isDeleted": true}}); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"slug": "combat", "isDeleted": false}); err != nil {
		t.Fatalf("recreate after soft delete: %v", err)
	}
}
