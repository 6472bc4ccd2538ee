package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"tavern.local/internal/platform/store"
)

// fakeRuleStore 按 slug 记账的内存实现，记录写操作方便断言。
type fakeRuleStore struct {
	rules       map[string]*Rule
	queryResult *RuleList
	queryErr    error
	lastQuery   QueryOptions
	createCalls int
	lastExclude string
}

func newFakeRuleStore() *fakeRuleStore {
	return &fakeRuleStore{rules: map[string]*Rule{}}
}

func (f *fakeRuleStore) Query(_ context.Context, opts QueryOptions) (*RuleList, error) {
	f.lastQuery = opts
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if f.queryResult != nil {
		return f.queryResult, nil
	}
	return &RuleList{Items: []*Rule{}}, nil
}

func (f *fakeRuleStore) FindBySlug(_ context.Context, slug string) (*Rule, error) {
	r, ok := f.rules[slug]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return r, nil
}

func (f *fakeRuleStore) ExistsSlug(_ context.Context, slug, excludeID string) bool {
	f.lastExclude = excludeID
	r, ok := f.rules[slug]
	if !ok {
		return false
	}
	return r.HexID() != excludeID
}

func (f *fakeRuleStore) Create(_ context.Context, r *Rule) *Rule {
	f.createCalls++
	r.ID = primitive.NewObjectID()
	f.rules[r.Slug] = r
	return r
}

func (f *fakeRuleStore) Update(_ context.Context, r *Rule) *Rule {
	f.rules[r.Slug] = r
	return r
}

func (f *fakeRuleStore) LogicDelete(_ context.Context, id string) bool {
	for slug, r := range f.rules {
		if r.HexID() == id {
			delete(f.rules, slug)
			return true
		}
	}
	return false
}

func (f *fakeRuleStore) Stats(context.Context) (*RuleStats, error) {
	return &RuleStats{Categories: []CategoryCount{}, TopTags: []TagCount{}}, nil
}

type fakeCategoryStore struct {
	cats []*RuleCategory
}

func (f *fakeCategoryStore) GetAll(context.Context) []*RuleCategory { return f.cats }

func (f *fakeCategoryStore) GetByID(_ context.Context, id string) *RuleCategory {
	for _, c := range f.cats {
		if c.HexID() == id {
			return c
		}
	}
	return nil
}

func (f *fakeCategoryStore) ExistsSlug(_ context.Context, slug, excludeID string) bool {
	for _, c := range f.cats {
		if c.Slug == slug && c.HexID() != excludeID {
			return true
		}
	}
	return false
}

func (f *fakeCategoryStore) Create(_ context.Context, c *RuleCategory) *RuleCategory {
	c.ID = primitive.NewObjectID()
	f.cats = append(f.cats, c)
	return c
}

func (f *fakeCategoryStore) Update(_ context.Context, c *RuleCategory) *RuleCategory { return c }

func (f *fakeCategoryStore) LogicDelete(_ context.Context, id string) bool {
	for i, c := range f.cats {
		if c.HexID() == id {
			f.cats = append(f.cats[:i], f.cats[i+1:]...)
			return true
		}
	}
	return false
}

func newTestService() (*Service, *fakeRuleStore, *fakeCategoryStore) {
	rs := newFakeRuleStore()
	cs := &fakeCategoryStore{cats: []*RuleCategory{
		{Slug: "combat", Name: "Combat", Order: 1},
		{Slug: "magic", Name: "Magic", Order: 2},
	}}
	return NewService(rs, cs), rs, cs
}

func TestServiceCreate(t *testing.T) {
	svc, rs, _ := newTestService()
	created, err := svc.Create(context.Background(), &Rule{
		Slug:     "  Grapple ",
		Title:    "Grapple",
		Category: "Combat",
		Summary:  "Hold a creature in place.",
		Tags:     []string{"Combat"},
	})
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if created.Slug != "grapple" {
		t.Fatalf("slug not normalized: %q", created.Slug)
	}
	if created.Category != "combat" {
		t.Fatalf("category not normalized: %q", created.Category)
	}
	if created.Tags[0] != "combat" {
		t.Fatalf("tags not lowered: %v", created.Tags)
	}
	if rs.createCalls != 1 {
		t.Fatalf("createCalls = %d, want 1", rs.createCalls)
	}
}

func TestServiceCreateUnknownCategory(t *testing.T) {
	svc, rs, _ := newTestService()
	_, err := svc.Create(context.Background(), &Rule{
		Slug:     "wish",
		Title:    "Wish",
		Category: "divine",
		Summary:  "s",
		Tags:     []string{"magic"},
	})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("got %v, want ErrUnknownCategory", err)
	}
	if rs.createCalls != 0 {
		t.Fatalf("store written on failed validation")
	}
}

func TestServiceCreateCategoryMatchByName(t *testing.T) {
	// 分类门禁同时接受 slug 和展示名，大小写不敏感。
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), &Rule{
		Slug:     "fireball",
		Title:    "Fireball",
		Category: "magic",
		Summary:  "s",
		Tags:     []string{"magic"},
	})
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}

func TestServiceCreateSlugTaken(t *testing.T) {
	svc, _, _ := newTestService()
	mk := func() *Rule {
		return &Rule{Slug: "grapple", Title: "Grapple", Category: "combat", Summary: "s", Tags: []string{"combat"}}
	}
	if _, err := svc.Create(context.Background(), mk()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.Create(context.Background(), mk())
	if !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("got %v, want ErrSlugTaken", err)
	}
}

func TestServiceUpdateKeepsSlugWithoutSelfCollision(t *testing.T) {
	svc, rs, _ := newTestService()
	created, err := svc.Create(context.Background(), &Rule{
		Slug: "grapple", Title: "Grapple", Category: "combat", Summary: "s", Tags: []string{"combat"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := svc.Update(context.Background(), "grapple", &Rule{
		Slug: "grapple", Title: "Grapple (revised)", Category: "combat", Summary: "s2", Tags: []string{"combat"},
	})
	if err != nil {
		t.Fatalf("got %v, want nil (same-slug update must not self-collide)", err)
	}
	if rs.lastExclude != created.HexID() {
		t.Fatalf("exclude id = %q, want %q", rs.lastExclude, created.HexID())
	}
	if updated.HexID() != created.HexID() {
		t.Fatalf("identity changed on update: %q != %q", updated.HexID(), created.HexID())
	}
	if updated.Title != "Grapple (revised)" {
		t.Fatalf("title not updated: %q", updated.Title)
	}
}

func TestServiceUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Update(context.Background(), "missing", validRule())
	if !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("got %v, want ErrRuleNotFound", err)
	}
}

func TestServiceDelete(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Create(context.Background(), validRule()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), "grapple"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), "grapple"); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("second delete: got %v, want ErrRuleNotFound", err)
	}
}

func TestServiceListMapsSnippets(t *testing.T) {
	svc, rs, _ := newTestService()
	now := time.Now()
	next := "abc"
	rs.queryResult = &RuleList{
		Items: []*Rule{
			{
				Base:    store.Base{ID: primitive.NewObjectID(), UpdatedAt: &now},
				Slug:    "grapple",
				Title:   "Grapple",
				Summary: "s",
				Tags:    nil,
				Sources: []Source{{Title: "Core Rulebook", Page: "42"}},
			},
		},
		Total:      7,
		NextCursor: &next,
	}
	out, err := svc.List(context.Background(), QueryOptions{Category: "  Combat "})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if rs.lastQuery.Category != "combat" {
		t.Fatalf("category not normalized before query: %q", rs.lastQuery.Category)
	}
	if out.Total != 7 || out.NextCursor == nil || *out.NextCursor != "abc" {
		t.Fatalf("pagination fields lost: total=%d cursor=%v", out.Total, out.NextCursor)
	}
	sn := out.Items[0]
	if sn.Source != "Core Rulebook" {
		t.Fatalf("source = %q, want first source title", sn.Source)
	}
	if sn.Tags == nil {
		t.Fatalf("nil tags must serialize as empty slice")
	}
}

func TestServiceListCategoriesOrder(t *testing.T) {
	svc, _, cs := newTestService()
	cs.cats = []*RuleCategory{
		{Slug: "magic", Name: "Magic", Order: 2},
		{Slug: "basics", Name: "Basics", Order: 1},
		{Slug: "arcana", Name: "Arcana", Order: 2},
	}
	got := svc.ListCategories(context.Background())
	want := []string{"basics", "arcana", "magic"}
	for i, w := range want {
		if got[i].Slug != w {
			t.Fatalf("order[%d] = %q, want %q", i, got[i].Slug, w)
		}
	}
}
