package store

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tavern.local/internal/platform/metrics"
)

// Repository 是类型参数化的文档 CRUD 仓储，带逻辑删除和缓存维护。
//
// 错误契约（和 service 层的校验错误刻意区分开）：
// - 写路径的存储故障：记 error 日志 + 指标，返回零值，不向上抛。
//   调用方从返回值区分不出“没匹配到”和“存储挂了”，只能看日志——
//   这是偏可用性的取舍：临时抖动降级成空响应，而不是满屏 500。
// - 读路径同样降级为 nil/空列表。
// - “找不到”就是 nil/false，不是错误。
type Repository[T Doc] struct {
	coll  *mongo.Collection
	cache *EntityCache
	name  string // 实体类型名，缓存 key 前缀 + 日志字段
}

const (
	readTimeout  = 1 * time.Second
	writeTimeout = 3 * time.Second
)

func NewRepository[T Doc](coll *mongo.Collection, cache *EntityCache) *Repository[T] {
	var zero T
	return &Repository[T]{
		coll:  coll,
		cache: cache,
		name:  reflect.TypeOf(zero).Elem().Name(),
	}
}

// TypeName 返回实体类型名（缓存 key 用的那个）。
func (r *Repository[T]) TypeName() string { return r.name }

// Collection 暴露底层集合，给需要专用查询的仓储（如 rules）组合使用。
func (r *Repository[T]) Collection() *mongo.Collection { return r.coll }

// Cache 暴露实体缓存，组合仓储在自己的读路径上维护缓存时用。
func (r *Repository[T]) Cache() *EntityCache { return r.cache }

// Create 盖时间戳、强制 IsDeleted=false、插入并回填 store 分配的 id，写缓存。
// 存储故障时返回零值（见类型注释的错误契约）。
func (r *Repository[T]) Create(ctx context.Context, e T) T {
	var zero T
	if any(e) == any(zero) {
		return zero
	}
	meta := e.Meta()
	now := time.Now().UTC()
	if meta.CreatedAt == nil {
		meta.CreatedAt = &now
	}
	meta.UpdatedAt = &now
	meta.IsDeleted = false

	dbctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res, err := r.coll.InsertOne(dbctx, e)
	if err != nil {
		slog.Error("create failed", "entity", r.name, "id", meta.HexID(), "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "create").Inc()
		return zero
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		meta.ID = oid
	}
	r.cache.Add(r.name, meta.HexID(), e)
	return e
}

// CreateMany 逐条套用 Create 的语义：失败的跳过并记日志，成功的返回。
// 整个调用永远不会整体失败。
func (r *Repository[T]) CreateMany(ctx context.Context, items []T) []T {
	out := make([]T, 0, len(items))
	var zero T
	for _, item := range items {
		created := r.Create(ctx, item)
		if any(created) == any(zero) {
			continue
		}
		out = append(out, created)
	}
	return out
}

// GetByID 先查缓存；miss 时按 (id ∧ 未删除) 回源并回填缓存。
// 非法 id、软删除、存储故障都返回零值。
func (r *Repository[T]) GetByID(ctx context.Context, id string) T {
	var zero T
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return zero
	}

	if cached := r.cache.Get(r.name, id); cached != nil {
		if e, ok := cached.(T); ok {
			return e
		}
	}

	dbctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	var e T
	if err := r.coll.FindOne(dbctx, bson.M{"_id": oid, "isDeleted": false}).Decode(&e); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			slog.Error("get by id failed", "entity", r.name, "id", id, "err", err)
			metrics.StoreFailures.WithLabelValues(r.coll.Name(), "get").Inc()
		}
		return zero
	}
	r.cache.Add(r.name, id, e)
	return e
}

// GetAll 返回全部未删除实体。列表读不走缓存（单实体缓存对列表没意义）。
func (r *Repository[T]) GetAll(ctx context.Context) []T {
	dbctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	cur, err := r.coll.Find(dbctx, bson.M{"isDeleted": false})
	if err != nil {
		slog.Error("get all failed", "entity", r.name, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "list").Inc()
		return []T{}
	}
	defer cur.Close(dbctx)
	out := []T{}
	if err := cur.All(dbctx, &out); err != nil {
		slog.Error("get all decode failed", "entity", r.name, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "list").Inc()
		return []T{}
	}
	return out
}

// Update 刷新 UpdatedAt 并整体替换 id 匹配的未删除文档。
// 只有 store 报告确实修改了才更新缓存；没匹配到时 warn 日志 + 零值
// （“not found”不抛错，留给调用方按业务决定怎么报）。
func (r *Repository[T]) Update(ctx context.Context, e T) T {
	var zero T
	if any(e) == any(zero) {
		return zero
	}
	meta := e.Meta()
	if meta.ID.IsZero() {
		slog.Warn("update without id", "entity", r.name)
		return zero
	}
	now := time.Now().UTC()
	meta.UpdatedAt = &now

	dbctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	// 过滤 isDeleted：软删除后的文档对 Update 不可见，也防止整体替换把删除标记洗掉
	res, err := r.coll.ReplaceOne(dbctx, bson.M{"_id": meta.ID, "isDeleted": false}, e)
	if err != nil {
		slog.Error("update failed", "entity", r.name, "id", meta.HexID(), "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "update").Inc()
		return zero
	}
	if res.MatchedCount == 0 {
		slog.Warn("update matched nothing", "entity", r.name, "id", meta.HexID())
		return zero
	}
	if res.ModifiedCount > 0 {
		r.cache.Update(r.name, meta.HexID(), e)
	}
	return e
}

// Delete 物理删除。只有确实删掉了才逐出缓存。
func (r *Repository[T]) Delete(ctx context.Context, id string) bool {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false
	}
	dbctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res, err := r.coll.DeleteOne(dbctx, bson.M{"_id": oid})
	if err != nil {
		slog.Error("delete failed", "entity", r.name, "id", id, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "delete").Inc()
		return false
	}
	if res.DeletedCount == 0 {
		return false
	}
	r.cache.Remove(r.name, id)
	return true
}

// LogicDelete 软删除：只在 (id ∧ 未删除) 时置位，重复调用第二次返回 false（幂等）。
func (r *Repository[T]) LogicDelete(ctx context.Context, id string) bool {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false
	}
	dbctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	res, err := r.coll.UpdateOne(dbctx,
		bson.M{"_id": oid, "isDeleted": false},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		slog.Error("logic delete failed", "entity", r.name, "id", id, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "logic_delete").Inc()
		return false
	}
	if res.ModifiedCount == 0 {
		return false
	}
	r.cache.Remove(r.name, id)
	return true
}

// Count 统计未删除实体数，故障降级为 0。
func (r *Repository[T]) Count(ctx context.Context) int64 {
	dbctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	n, err := r.coll.CountDocuments(dbctx, bson.M{"isDeleted": false})
	if err != nil {
		slog.Error("count failed", "entity", r.name, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "count").Inc()
		return 0
	}
	return n
}

// Exists 判断未删除实体是否存在，故障降级为 false。
func (r *Repository[T]) Exists(ctx context.Context, id string) bool {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false
	}
	dbctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	n, err := r.coll.CountDocuments(dbctx, bson.M{"_id": oid, "isDeleted": false})
	if err != nil {
		slog.Error("exists failed", "entity", r.name, "id", id, "err", err)
		metrics.StoreFailures.WithLabelValues(r.coll.Name(), "exists").Inc()
		return false
	}
	return n > 0
}
