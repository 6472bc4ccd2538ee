package rules

import (
	"context"
	"time"

	"tavern.local/internal/platform/store"
)

// Rule 是规则条目领域对象。Slug 是对外的稳定标识（URL 用），
// 和 store 分配的 id 是两回事。
type Rule struct {
	store.Base `bson:",inline"`

	Slug     string   `bson:"slug" json:"slug"`
	Title    string   `bson:"title" json:"title"`
	Category string   `bson:"category" json:"category"`
	Summary  string   `bson:"summary" json:"summary"`
	Tags     []string `bson:"tags" json:"tags"`
	// Body 是按段落切好的正文，顺序有意义
	Body             []string    `bson:"body" json:"body"`
	Sources          []Source    `bson:"sources" json:"sources"`
	Examples         []Example   `bson:"examples" json:"examples"`
	References       []Reference `bson:"references" json:"references"`
	RelatedRuleSlugs []string    `bson:"relatedRuleSlugs" json:"related_rule_slugs"`
}

// Source 标注规则出处（书名 + 页码）。
type Source struct {
	Title string `bson:"title" json:"title"`
	Page  string `bson:"page,omitempty" json:"page,omitempty"`
}

type Example struct {
	Title string `bson:"title,omitempty" json:"title,omitempty"`
	Text  string `bson:"text" json:"text"`
}

type Reference struct {
	Label string `bson:"label" json:"label"`
	URL   string `bson:"url,omitempty" json:"url,omitempty"`
}

// RuleCategory 是规则分类。Order 决定默认展示顺序。
type RuleCategory struct {
	store.Base `bson:",inline"`

	Slug        string `bson:"slug" json:"slug"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Order       int    `bson:"order" json:"order"`
}

// QueryOptions 是规则列表查询入参。所有筛选条件 AND 组合；
// Limit 会被钳到 [1,100]，<=0 时取 20。
type QueryOptions struct {
	Category string
	Tag      string
	Source   string
	Search   string
	Cursor   string
	Limit    int
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit 把 limit 规整到 [1,100]，<=0 用默认值。
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// RuleList 是查询引擎的返回：一页实体 + 全量 total + 下一页游标。
// Total 按基础筛选条件算（与游标无关），NextCursor 只有整页时才给——
// 这是“没有下一页”的唯一可靠信号。
type RuleList struct {
	Items      []*Rule
	Total      int64
	NextCursor *string
}

// RuleSnippet 是列表响应里的瘦 DTO。
type RuleSnippet struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Summary   string     `json:"summary"`
	Tags      []string   `json:"tags"`
	UpdatedAt *time.Time `json:"updated_at"`
	Source    string     `json:"source"`
}

// RuleListResponse 是 GET /rules 的响应体。
type RuleListResponse struct {
	Items      []RuleSnippet `json:"items"`
	Total      int64         `json:"total"`
	NextCursor *string       `json:"next_cursor"`
}

// CategoryCount / TagCount / RuleStats 是统计聚合的结果。
type CategoryCount struct {
	Category string `bson:"_id" json:"category"`
	Count    int64  `bson:"count" json:"count"`
}

type TagCount struct {
	Tag   string `bson:"_id" json:"tag"`
	Count int64  `bson:"count" json:"count"`
}

type RuleStats struct {
	Categories []CategoryCount `json:"categories"`
	TopTags    []TagCount      `json:"top_tags"`
}

// RuleStore 是 service 依赖的规则仓储能力。
// 用接口表达是为了测试时可以用内存假实现（不起 Mongo）。
type RuleStore interface {
	Query(ctx context.Context, opts QueryOptions) (*RuleList, error)
	FindBySlug(ctx context.Context, slug string) (*Rule, error)
	ExistsSlug(ctx context.Context, slug string, excludeID string) bool
	Create(ctx context.Context, r *Rule) *Rule
	Update(ctx context.Context, r *Rule) *Rule
	LogicDelete(ctx context.Context, id string) bool
	Stats(ctx context.Context) (*RuleStats, error)
}

// CategoryStore 是 service 依赖的分类仓储能力。
type CategoryStore interface {
	GetAll(ctx context.Context) []*RuleCategory
	GetByID(ctx context.Context, id string) *RuleCategory
	ExistsSlug(ctx context.Context, slug string, excludeID string) bool
	Create(ctx context.Context, c *RuleCategory) *RuleCategory
	Update(ctx context.Context, c *RuleCategory) *RuleCategory
	LogicDelete(ctx context.Context, id string) bool
}
