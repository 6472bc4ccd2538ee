package repo

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tavern.local/internal/app/rules"
	"tavern.local/internal/platform/metrics"
	"tavern.local/internal/platform/store"
)

const queryTimeout = 3 * time.Second

// RulesRepo 在通用仓储之上加规则特有的能力：
// 分页查询引擎、slug 定位、统计聚合。
type RulesRepo struct {
	*store.Repository[*rules.Rule]
	slugs *SlugFilter
}

func NewRulesRepo(base *store.Repository[*rules.Rule], slugs *SlugFilter) *RulesRepo {
	return &RulesRepo{Repository: base, slugs: slugs}
}

// SeedSlugs 启动时把存量 slug 灌进布隆过滤器。
// 失败不致命，过滤器会退化成“全部可能存在”。
func (r *RulesRepo) SeedSlugs(ctx context.Context) {
	if r.slugs == nil {
		return
	}
	values, err := r.Collection().Distinct(ctx, "slug", bson.M{"isDeleted": false})
	if err != nil {
		slog.Warn("seed slug filter failed", "err", err)
		return
	}
	for _, v := range values {
		if s, ok := v.(string); ok {
			r.slugs.Add(s)
		}
	}
	slog.Info("slug filter seeded", "count", len(values))
}

// Create 在通用创建之上维护布隆过滤器。
func (r *RulesRepo) Create(ctx context.Context, rule *rules.Rule) *rules.Rule {
	created := r.Repository.Create(ctx, rule)
	if created != nil {
		r.slugs.Add(created.Slug)
	}
	return created
}

// Update 同样要维护布隆过滤器：更新允许改 slug，新 slug 不喂进去的话
// FindBySlug 会在过滤器上直接判不存在，规则改名后就查不到了。
// 布隆过滤器只增不删，旧 slug 留在过滤器里只是多一次回查，无害。
func (r *RulesRepo) Update(ctx context.Context, rule *rules.Rule) *rules.Rule {
	updated := r.Repository.Update(ctx, rule)
	if updated != nil {
		r.slugs.Add(updated.Slug)
	}
	return updated
}

// Query 执行分页查询。顺序固定：先用基础筛选算 total，
// 再叠加游标取一页。$text 因缺索引失败时降级为正则重试一次，
// 调用方感知不到差别。
func (r *RulesRepo) Query(ctx context.Context, opts rules.QueryOptions) (*rules.RuleList, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := rules.ClampLimit(opts.Limit)
	cursor := rules.DecodeCursor(opts.Cursor)

	res, err := r.runQuery(ctx, baseFilter(opts, false), cursor, limit)
	if err != nil && opts.Search != "" && isTextIndexUnavailable(err) {
		metrics.RuleSearchFallbacks.Inc()
		slog.Warn("text index unavailable, falling back to regex search", "err", err)
		res, err = r.runQuery(ctx, baseFilter(opts, true), cursor, limit)
	}
	return res, err
}

func (r *RulesRepo) runQuery(ctx context.Context, base bson.M, cursor rules.Cursor, limit int) (*rules.RuleList, error) {
	total, err := r.Collection().CountDocuments(ctx, base)
	if err != nil {
		return nil, err
	}

	filter := withCursor(base, cursor)
	findOpts := options.Find().
		SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.Collection().Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	items := make([]*rules.Rule, 0, limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}

	res := &rules.RuleList{Items: items, Total: total}
	// 只有整页才给下一页游标；不满一页说明已经到底了
	if len(items) == limit {
		last := items[len(items)-1]
		at := time.Time{}
		if last.UpdatedAt != nil {
			at = *last.UpdatedAt
		}
		token := rules.EncodeCursor(at, last.ID)
		res.NextCursor = &token
	}
	return res, nil
}

// baseFilter 组装与游标无关的筛选条件。regexFallback 为真时
// 用不区分大小写的正则 OR 代替 $text。
func baseFilter(opts rules.QueryOptions, regexFallback bool) bson.M {
	filter := bson.M{"isDeleted": false}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}
	if opts.Tag != "" {
		filter["tags"] = strings.ToLower(strings.TrimSpace(opts.Tag))
	}
	if opts.Source != "" {
		filter["sources.title"] = bson.M{
			"$regex":   regexp.QuoteMeta(strings.TrimSpace(opts.Source)),
			"$options": "i",
		}
	}
	if opts.Search != "" {
		if regexFallback {
			pattern := regexp.QuoteMeta(strings.TrimSpace(opts.Search))
			rx := bson.M{"$regex": pattern, "$options": "i"}
			filter["$or"] = []bson.M{
				{"title": rx},
				{"summary": rx},
				{"tags": rx},
				{"body": rx},
			}
		} else {
			filter["$text"] = bson.M{"$search": opts.Search}
		}
	}
	return filter
}

// withCursor 叠加键集条件：updatedAt 更早，或同刻但 _id 更小。
// 和 (updatedAt desc, _id desc) 的排序键一致，保证不重不漏。
func withCursor(base bson.M, c rules.Cursor) bson.M {
	if c.IsZero() {
		return base
	}
	after := bson.M{"$or": []bson.M{
		{"updatedAt": bson.M{"$lt": c.UpdatedAt}},
		{"updatedAt": c.UpdatedAt, "_id": bson.M{"$lt": c.ID}},
	}}
	return bson.M{"$and": []bson.M{base, after}}
}

func isTextIndexUnavailable(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 27 = IndexNotFound
		if ce.Code == 27 {
			return true
		}
	}
	return strings.Contains(err.Error(), "text index required")
}

// FindBySlug 按 slug 取未删除的规则。这里刻意返回显式错误而不是
// 零值：slug 查找是面向用户的路径，404 和 500 必须能区分。
func (r *RulesRepo) FindBySlug(ctx context.Context, slug string) (*rules.Rule, error) {
	if !r.slugs.MightExist(slug) {
		return nil, rules.ErrRuleNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var out rules.Rule
	err := r.Collection().FindOne(ctx, bson.M{"slug": slug, "isDeleted": false}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, rules.ErrRuleNotFound
	}
	if err != nil {
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "findBySlug").Inc()
		return nil, err
	}
	return &out, nil
}

// ExistsSlug 查 slug 是否被未删除的文档占用，excludeID 用于更新时
// 排除自身。查不了时返回 false，让唯一索引兜底。
func (r *RulesRepo) ExistsSlug(ctx context.Context, slug string, excludeID string) bool {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{"slug": slug, "isDeleted": false}
	if oid, err := primitive.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := r.Collection().CountDocuments(ctx, filter)
	if err != nil {
		slog.Error("count slug failed", "slug", slug, "err", err)
		metrics.StoreFailures.WithLabelValues(r.Collection().Name(), "existsSlug").Inc()
		return false
	}
	return n > 0
}

// Stats 聚合两份统计：各分类的规则数，以及出现频次最高的 20 个标签。
func (r *RulesRepo) Stats(ctx context.Context) (*rules.RuleStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	match := bson.D{{Key: "$match", Value: bson.D{{Key: "isDeleted", Value: false}}}}

	byCategory := mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	var cats []rules.CategoryCount
	cur, err := r.Collection().Aggregate(ctx, byCategory)
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &cats); err != nil {
		return nil, err
	}

	topTags := mongo.Pipeline{
		match,
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$tags"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: 20}},
	}
	var tags []rules.TagCount
	cur, err = r.Collection().Aggregate(ctx, topTags)
	if err != nil {
		return nil, err
	}
	if err := cur.All(ctx, &tags); err != nil {
		return nil, err
	}

	if cats == nil {
		cats = []rules.CategoryCount{}
	}
	if tags == nil {
		tags = []rules.TagCount{}
	}
	return &rules.RuleStats{Categories: cats, TopTags: tags}, nil
}
