package db

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IndexOptions 控制启动时的索引初始化。
type IndexOptions struct {
	// TextIndex 为 false 时不创建 rules 的全文索引，
	// 查询路径会走 regex 降级（适合本地/未授权创建 text index 的环境）。
	TextIndex bool
}

// EnsureIndexes 在启动时创建本服务依赖的索引。
//
// 设计原因：
// - Mongo 没有 SQL migration 文件可跑，索引就是这里唯一需要“迁移”的 schema
// - 所有创建都是幂等的（同 keys 的 createIndex 会被 Mongo 忽略）
// - 失败只记日志不中断启动：唯一索引缺失时 slug 冲突退化为 service 层预检，
//   服务仍可用，属于降级而不是故障
func EnsureIndexes(ctx context.Context, database *mongo.Database, opts IndexOptions) {
	ensure(ctx, database.Collection("users"), mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	// slug 唯一性只约束未删除的文档：软删除把文档留在集合里，
	// 全量唯一索引会挡住“删掉再建同名”的合法请求。
	ensure(ctx, database.Collection("rule_categories"), mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"isDeleted": false}),
	})
	ensure(ctx, database.Collection("campaigns"), mongo.IndexModel{
		Keys:    bson.D{{Key: "inviteCode", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})

	rules := database.Collection("rules")
	// slug 唯一索引是并发创建同名 slug 时真正的正确性保证；
	// service 层的预检只是更友好的报错。同样只约束未删除的文档。
	ensure(ctx, rules, mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true).
			SetPartialFilterExpression(bson.M{"isDeleted": false}),
	})
	// 游标分页按 (updatedAt desc, _id desc) 排序，建一个同序复合索引
	ensure(ctx, rules, mongo.IndexModel{
		Keys: bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}},
	})
	if opts.TextIndex {
		ensure(ctx, rules, mongo.IndexModel{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "summary", Value: "text"},
				{Key: "tags", Value: "text"},
				{Key: "body", Value: "text"},
			},
			Options: options.Index().SetName("rules_text"),
		})
	}

	ensure(ctx, database.Collection("notifications"), mongo.IndexModel{
		Keys: bson.D{{Key: "campaignId", Value: 1}, {Key: "at", Value: -1}},
	})
}

func ensure(ctx context.Context, coll *mongo.Collection, model mongo.IndexModel) {
	if _, err := coll.Indexes().CreateOne(ctx, model); err != nil {
		slog.Error("create index failed", "collection", coll.Name(), "err", err)
	}
}
