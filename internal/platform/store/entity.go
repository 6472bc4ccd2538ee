package store

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base 是所有持久化实体的公共字段。各领域实体内嵌它（指针接收者实现 Doc）。
//
// 约定：
// - ID 由 Mongo 在插入时分配，调用方永远不自己填
// - CreatedAt/UpdatedAt 只由仓储层盖章，service/handler 不要碰
// - IsDeleted 是逻辑删除标记，正常读路径一律过滤掉
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt *time.Time         `bson:"createdAt,omitempty" json:"created_at,omitempty"`
	UpdatedAt *time.Time         `bson:"updatedAt,omitempty" json:"updated_at,omitempty"`
	IsDeleted bool               `bson:"isDeleted" json:"-"`
}

// Meta 让任何内嵌 Base 的实体满足 Doc。
func (b *Base) Meta() *Base { return b }

// HexID 返回对外暴露的字符串 id（空 ObjectID 返回 ""）。
func (b *Base) HexID() string {
	if b.ID.IsZero() {
		return ""
	}
	return b.ID.Hex()
}

// Doc 是泛型仓储对实体的最小要求：能拿到公共元数据。
// 用组合（内嵌 Base）而不是继承链，实体自己只管业务字段。
type Doc interface {
	Meta() *Base
}

// CacheKey 按 "<TypeName>_<id>" 拼缓存 key。
func CacheKey(typeName, id string) string {
	return typeName + "_" + id
}
