package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Service 封装规则和分类的业务规则：校验、slug 唯一性、
// 分类存在性门禁。仓储层的基础设施故障在这里统一转成错误。
type Service struct {
	rules      RuleStore
	categories CategoryStore
}

func NewService(rules RuleStore, categories CategoryStore) *Service {
	return &Service{rules: rules, categories: categories}
}

// List 执行规则分页查询，把引擎结果映射成瘦 DTO。
func (s *Service) List(ctx context.Context, opts QueryOptions) (*RuleListResponse, error) {
	opts.Category = NormalizeSlug(opts.Category)
	res, err := s.rules.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	out := &RuleListResponse{
		Items:      make([]RuleSnippet, 0, len(res.Items)),
		Total:      res.Total,
		NextCursor: res.NextCursor,
	}
	for _, r := range res.Items {
		out.Items = append(out.Items, snippetOf(r))
	}
	return out, nil
}

func snippetOf(r *Rule) RuleSnippet {
	sn := RuleSnippet{
		ID:        r.HexID(),
		Slug:      r.Slug,
		Title:     r.Title,
		Category:  r.Category,
		Summary:   r.Summary,
		Tags:      r.Tags,
		UpdatedAt: r.UpdatedAt,
	}
	if sn.Tags == nil {
		sn.Tags = []string{}
	}
	if len(r.Sources) > 0 {
		sn.Source = r.Sources[0].Title
	}
	return sn
}

// GetBySlug 返回完整规则，找不到时返回 ErrRuleNotFound。
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Rule, error) {
	return s.rules.FindBySlug(ctx, NormalizeSlug(slug))
}

func (s *Service) Stats(ctx context.Context) (*RuleStats, error) {
	return s.rules.Stats(ctx)
}

// Create 新建规则。流程：字段校验 → 分类存在性 → slug 唯一性 → 写库。
// 任何一步失败都不会落库。
func (s *Service) Create(ctx context.Context, r *Rule) (*Rule, error) {
	normalizeRule(r)
	if err := ValidateRule(r); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, r.Category); err != nil {
		return nil, err
	}
	if s.rules.ExistsSlug(ctx, r.Slug, "") {
		return nil, fmt.Errorf("%w: %s", ErrSlugTaken, r.Slug)
	}
	created := s.rules.Create(ctx, r)
	if created == nil {
		return nil, fmt.Errorf("create rule %s: %w", r.Slug, ErrStoreUnavailable)
	}
	return created, nil
}

// Update 按 slug 定位规则并整体替换内容。改 slug 时重查唯一性，
// 排除自身，所以保持原 slug 的更新不会自撞。
func (s *Service) Update(ctx context.Context, slug string, in *Rule) (*Rule, error) {
	existing, err := s.rules.FindBySlug(ctx, NormalizeSlug(slug))
	if err != nil {
		return nil, err
	}
	normalizeRule(in)
	if err := ValidateRule(in); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, in.Category); err != nil {
		return nil, err
	}
	if s.rules.ExistsSlug(ctx, in.Slug, existing.HexID()) {
		return nil, fmt.Errorf("%w: %s", ErrSlugTaken, in.Slug)
	}
	in.Base = existing.Base
	updated := s.rules.Update(ctx, in)
	if updated == nil {
		return nil, fmt.Errorf("update rule %s: %w", slug, ErrStoreUnavailable)
	}
	return updated, nil
}

// Delete 软删规则。删除是幂等的：规则不存在或已删都返回 ErrRuleNotFound。
func (s *Service) Delete(ctx context.Context, slug string) error {
	existing, err := s.rules.FindBySlug(ctx, NormalizeSlug(slug))
	if err != nil {
		return err
	}
	if !s.rules.LogicDelete(ctx, existing.HexID()) {
		return ErrRuleNotFound
	}
	return nil
}

func (s *Service) ensureCategory(ctx context.Context, slug string) error {
	for _, c := range s.categories.GetAll(ctx) {
		if strings.EqualFold(c.Slug, slug) || strings.EqualFold(c.Name, slug) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownCategory, slug)
}

func normalizeRule(r *Rule) {
	if r == nil {
		return
	}
	r.Slug = NormalizeSlug(r.Slug)
	r.Category = NormalizeSlug(r.Category)
	r.Title = strings.TrimSpace(r.Title)
	if r.Tags == nil {
		r.Tags = []string{}
	}
	for i, t := range r.Tags {
		r.Tags[i] = strings.ToLower(strings.TrimSpace(t))
	}
	if r.Body == nil {
		r.Body = []string{}
	}
	if r.Sources == nil {
		r.Sources = []Source{}
	}
	if r.Examples == nil {
		r.Examples = []Example{}
	}
	if r.References == nil {
		r.References = []Reference{}
	}
	if r.RelatedRuleSlugs == nil {
		r.RelatedRuleSlugs = []string{}
	}
}

// ListCategories 返回全部分类，按 Order 升序、同序按 Name。
func (s *Service) ListCategories(ctx context.Context) []*RuleCategory {
	cats := s.categories.GetAll(ctx)
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].Name < cats[j].Name
	})
	return cats
}

func (s *Service) CreateCategory(ctx context.Context, c *RuleCategory) (*RuleCategory, error) {
	if c != nil {
		c.Slug = NormalizeSlug(c.Slug)
		c.Name = strings.TrimSpace(c.Name)
	}
	if err := ValidateCategory(c); err != nil {
		return nil, err
	}
	if s.categories.ExistsSlug(ctx, c.Slug, "") {
		return nil, fmt.Errorf("%w: %s", ErrSlugTaken, c.Slug)
	}
	created := s.categories.Create(ctx, c)
	if created == nil {
		return nil, fmt.Errorf("create category %s: %w", c.Slug, ErrStoreUnavailable)
	}
	return created, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in *RuleCategory) (*RuleCategory, error) {
	existing := s.categories.GetByID(ctx, id)
	if existing == nil {
		return nil, ErrCategoryNotFound
	}
	if in != nil {
		in.Slug = NormalizeSlug(in.Slug)
		in.Name = strings.TrimSpace(in.Name)
	}
	if err := ValidateCategory(in); err != nil {
		return nil, err
	}
	if s.categories.ExistsSlug(ctx, in.Slug, existing.HexID()) {
		return nil, fmt.Errorf("%w: %s", ErrSlugTaken, in.Slug)
	}
	in.Base = existing.Base
	updated := s.categories.Update(ctx, in)
	if updated == nil {
		return nil, fmt.Errorf("update category %s: %w", id, ErrStoreUnavailable)
	}
	return updated, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if !s.categories.LogicDelete(ctx, id) {
		return ErrCategoryNotFound
	}
	return nil
}
