package campaign

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"tavern.local/internal/app/campaign/events"
)

// 内存假仓储，记录写次数，方便断言“失败路径不落库”。

type fakeCampaignStore struct {
	byID    map[string]*Campaign
	byCode  map[string]*Campaign
	updates int
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{byID: map[string]*Campaign{}, byCode: map[string]*Campaign{}}
}

func (f *fakeCampaignStore) add(c *Campaign) *Campaign {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.byID[c.HexID()] = c
	if c.InviteCode != "" {
		f.byCode[c.InviteCode] = c
	}
	return c
}

func (f *fakeCampaignStore) GetByID(_ context.Context, id string) *Campaign { return f.byID[id] }
func (f *fakeCampaignStore) Create(_ context.Context, c *Campaign) *Campaign {
	return f.add(c)
}
func (f *fakeCampaignStore) Update(_ context.Context, c *Campaign) *Campaign {
	f.updates++
	return c
}
func (f *fakeCampaignStore) LogicDelete(_ context.Context, id string) bool {
	_, ok := f.byID[id]
	delete(f.byID, id)
	return ok
}
func (f *fakeCampaignStore) FindByInviteCode(_ context.Context, code string) (*Campaign, error) {
	c, ok := f.byCode[code]
	if !ok {
		return nil, ErrInviteNotFound
	}
	return c, nil
}

type fakeCharacterStore struct {
	byID    map[string]*Character
	updates []*Character
}

func newFakeCharacterStore() *fakeCharacterStore {
	return &fakeCharacterStore{byID: map[string]*Character{}}
}

func (f *fakeCharacterStore) add(c *Character) *Character {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	f.byID[c.HexID()] = c
	return c
}

func (f *fakeCharacterStore) GetByID(_ context.Context, id string) *Character { return f.byID[id] }
func (f *fakeCharacterStore) Update(_ context.Context, c *Character) *Character {
	f.updates = append(f.updates, c)
	return c
}

type fakeInventoryStore struct {
	byCharacter map[string]*Inventory
	creates     int
}

func newFakeInventoryStore() *fakeInventoryStore {
	return &fakeInventoryStore{byCharacter: map[string]*Inventory{}}
}

func (f *fakeInventoryStore) FindByCharacter(_ context.Context, characterID string) (*Inventory, error) {
	inv, ok := f.byCharacter[characterID]
	if !ok {
		return nil, ErrInventoryNotFound
	}
	return inv, nil
}
func (f *fakeInventoryStore) Create(_ context.Context, inv *Inventory) *Inventory {
	f.creates++
	inv.ID = primitive.NewObjectID()
	f.byCharacter[inv.CharacterID] = inv
	return inv
}
func (f *fakeInventoryStore) Update(_ context.Context, inv *Inventory) *Inventory { return inv }

type fakeSequencer struct{ n uint64 }

func (f *fakeSequencer) Next(context.Context, string) (uint64, error) {
	f.n++
	return f.n, nil
}

type fixture struct {
	svc         *Service
	campaigns   *fakeCampaignStore
	characters  *fakeCharacterStore
	inventories *fakeInventoryStore
	events      *events.ChannelCollector
}

func newFixture() *fixture {
	cs := newFakeCampaignStore()
	chs := newFakeCharacterStore()
	inv := newFakeInventoryStore()
	collector := events.NewChannelCollector(16)
	return &fixture{
		svc:         NewService(cs, chs, inv, &fakeSequencer{}, collector),
		campaigns:   cs,
		characters:  chs,
		inventories: inv,
		events:      collector,
	}
}

func (fx *fixture) drainEvents() []events.Event {
	var out []events.Event
	for {
		select {
		case e := <-fx.events.Events():
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestCreateCampaignIssuesInviteCode(t *testing.T) {
	fx := newFixture()
	created, err := fx.svc.CreateCampaign(context.Background(), &Campaign{Name: "Curse of Strahd"}, "gm1")
	if err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if created.OwnerID != "gm1" {
		t.Fatalf("owner = %q, want gm1", created.OwnerID)
	}
	if len(created.InviteCode) < 6 {
		t.Fatalf("invite code too short: %q", created.InviteCode)
	}
	if created.MemberIDs == nil || created.CharacterIDs == nil {
		t.Fatalf("member/character lists must be non-nil")
	}
}

func TestJoinByInviteCode(t *testing.T) {
	fx := newFixture()
	c := fx.campaigns.add(&Campaign{Name: "c", OwnerID: "gm1", InviteCode: "abc123", MemberIDs: []string{}})

	joined, err := fx.svc.JoinByInviteCode(context.Background(), " abc123 ", "p1")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined.HasMember("p1") {
		t.Fatalf("member not recorded")
	}

	if _, err := fx.svc.JoinByInviteCode(context.Background(), "abc123", "p1"); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("second join: got %v, want ErrAlreadyMember", err)
	}
	if _, err := fx.svc.JoinByInviteCode(context.Background(), "abc123", c.OwnerID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("gm joining own campaign: got %v, want ErrAlreadyMember", err)
	}
	if _, err := fx.svc.JoinByInviteCode(context.Background(), "nope", "p2"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("bad code: got %v, want ErrInviteNotFound", err)
	}

	evs := fx.drainEvents()
	if len(evs) != 1 || evs[0].Type != events.TypeMemberJoined {
		t.Fatalf("events = %v, want single member_joined", evs)
	}
}

func TestRemoveMemberRules(t *testing.T) {
	fx := newFixture()
	c := fx.campaigns.add(&Campaign{Name: "c", OwnerID: "gm1", MemberIDs: []string{"p1", "p2"}})
	id := c.HexID()

	// 无关路人不能踢人
	if _, err := fx.svc.RemoveMember(context.Background(), id, "p1", "p2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger kick: got %v, want ErrForbidden", err)
	}
	// GM 不能被移除
	if _, err := fx.svc.RemoveMember(context.Background(), id, "gm1", "gm1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("remove gm: got %v, want ErrForbidden", err)
	}
	// 自己可以退团
	updated, err := fx.svc.RemoveMember(context.Background(), id, "p1", "p1")
	if err != nil {
		t.Fatalf("self leave: %v", err)
	}
	if updated.HasMember("p1") {
		t.Fatalf("member still present after leave")
	}
	// GM 可以踢人
	if _, err := fx.svc.RemoveMember(context.Background(), id, "p2", "gm1"); err != nil {
		t.Fatalf("gm kick: %v", err)
	}
	// 不在团内的重复移除
	if _, err := fx.svc.RemoveMember(context.Background(), id, "p1", "gm1"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("repeat remove: got %v, want ErrNotMember", err)
	}
}

func TestAttachCharacter(t *testing.T) {
	fx := newFixture()
	c := fx.campaigns.add(&Campaign{Name: "c", OwnerID: "gm1", MemberIDs: []string{"p1"}, CharacterIDs: []string{}})
	ch := fx.characters.add(&Character{OwnerID: "p1", Name: "Mazrim"})

	updated, err := fx.svc.AttachCharacter(context.Background(), c.HexID(), ch.HexID(), "p1")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(updated.CharacterIDs) != 1 || updated.CharacterIDs[0] != ch.HexID() {
		t.Fatalf("character not attached: %v", updated.CharacterIDs)
	}
	if ch.CampaignID != c.HexID() {
		t.Fatalf("backref not set: %q", ch.CampaignID)
	}

	// 重复挂靠幂等
	again, err := fx.svc.AttachCharacter(context.Background(), c.HexID(), ch.HexID(), "p1")
	if err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	if len(again.CharacterIDs) != 1 {
		t.Fatalf("duplicate attach: %v", again.CharacterIDs)
	}

	// 非成员的角色进不来
	stranger := fx.characters.add(&Character{OwnerID: "p9", Name: "Ghost"})
	if _, err := fx.svc.AttachCharacter(context.Background(), c.HexID(), stranger.HexID(), "p9"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("non-member attach: got %v, want ErrNotMember", err)
	}
}

func TestDetachCharacter(t *testing.T) {
	fx := newFixture()
	ch := fx.characters.add(&Character{OwnerID: "p1", Name: "Mazrim"})
	c := fx.campaigns.add(&Campaign{Name: "c", OwnerID: "gm1", MemberIDs: []string{"p1"}, CharacterIDs: []string{ch.HexID()}})
	ch.CampaignID = c.HexID()

	updated, err := fx.svc.DetachCharacter(context.Background(), c.HexID(), ch.HexID(), "gm1")
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if len(updated.CharacterIDs) != 0 {
		t.Fatalf("character still attached: %v", updated.CharacterIDs)
	}
	if ch.CampaignID != "" {
		t.Fatalf("backref not cleared: %q", ch.CampaignID)
	}
	if _, err := fx.svc.DetachCharacter(context.Background(), c.HexID(), ch.HexID(), "gm1"); !errors.Is(err, ErrCharacterNotFound) {
		t.Fatalf("repeat detach: got %v, want ErrCharacterNotFound", err)
	}
}

func TestTransferCurrency(t *testing.T) {
	fx := newFixture()
	from := fx.characters.add(&Character{OwnerID: "p1", Name: "Rich", Currency: Currency{Gold: 10, Silver: 5}})
	to := fx.characters.add(&Character{OwnerID: "p2", Name: "Poor"})

	err := fx.svc.TransferCurrency(context.Background(), from.HexID(), to.HexID(), Currency{Gold: 3, Silver: 5}, "p1")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if from.Currency.Gold != 7 || from.Currency.Silver != 0 {
		t.Fatalf("debit wrong: %+v", from.Currency)
	}
	if to.Currency.Gold != 3 || to.Currency.Silver != 5 {
		t.Fatalf("credit wrong: %+v", to.Currency)
	}
}

func TestTransferCurrencyRejections(t *testing.T) {
	fx := newFixture()
	from := fx.characters.add(&Character{OwnerID: "p1", Name: "Rich", Currency: Currency{Gold: 1}})
	to := fx.characters.add(&Character{OwnerID: "p2", Name: "Poor"})
	ctx := context.Background()

	if err := fx.svc.TransferCurrency(ctx, from.HexID(), to.HexID(), Currency{Gold: -1}, "p1"); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("negative amount: got %v, want ErrBadQuantity", err)
	}
	if err := fx.svc.TransferCurrency(ctx, from.HexID(), to.HexID(), Currency{}, "p1"); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("zero amount: got %v, want ErrBadQuantity", err)
	}
	if err := fx.svc.TransferCurrency(ctx, from.HexID(), to.HexID(), Currency{Gold: 1}, "p2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner: got %v, want ErrForbidden", err)
	}
	if err := fx.svc.TransferCurrency(ctx, from.HexID(), to.HexID(), Currency{Gold: 2}, "p1"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraft: got %v, want ErrInsufficientFunds", err)
	}
	// 任何拒绝都不能动余额
	if from.Currency.Gold != 1 || to.Currency.Gold != 0 {
		t.Fatalf("balances touched on rejected transfer: from=%+v to=%+v", from.Currency, to.Currency)
	}
	if len(fx.characters.updates) != 0 {
		t.Fatalf("store written on rejected transfer")
	}
}

func TestAddItemCreatesAndMerges(t *testing.T) {
	fx := newFixture()
	ch := fx.characters.add(&Character{OwnerID: "p1", Name: "Mazrim"})
	ctx := context.Background()

	inv, err := fx.svc.AddItem(ctx, ch.HexID(), Item{Name: "Rope", Quantity: 1}, "p1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if fx.inventories.creates != 1 {
		t.Fatalf("inventory not lazily created")
	}
	inv, err = fx.svc.AddItem(ctx, ch.HexID(), Item{Name: "Rope", Quantity: 2}, "p1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if len(inv.Items) != 1 || inv.Items[0].Quantity != 3 {
		t.Fatalf("same-name items must merge, got %v", inv.Items)
	}
	if fx.inventories.creates != 1 {
		t.Fatalf("inventory recreated on second add")
	}

	if _, err := fx.svc.AddItem(ctx, ch.HexID(), Item{Name: "Rope", Quantity: 0}, "p1"); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("zero quantity: got %v, want ErrBadQuantity", err)
	}
	if _, err := fx.svc.AddItem(ctx, ch.HexID(), Item{Name: "Rope", Quantity: 1}, "p2"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-owner: got %v, want ErrForbidden", err)
	}
}

func TestRemoveItem(t *testing.T) {
	fx := newFixture()
	ch := fx.characters.add(&Character{OwnerID: "p1", Name: "Mazrim"})
	fx.inventories.Create(context.Background(), &Inventory{
		CharacterID: ch.HexID(),
		Items:       []Item{{Name: "Rope", Quantity: 3}, {Name: "Torch", Quantity: 1}},
	})
	ctx := context.Background()

	inv, err := fx.svc.RemoveItem(ctx, ch.HexID(), "Rope", 2, "p1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if inv.Items[0].Quantity != 1 {
		t.Fatalf("quantity = %d, want 1", inv.Items[0].Quantity)
	}

	// 扣到 0 整条移除
	inv, err = fx.svc.RemoveItem(ctx, ch.HexID(), "Torch", 1, "p1")
	if err != nil {
		t.Fatalf("remove to zero: %v", err)
	}
	for _, it := range inv.Items {
		if it.Name == "Torch" {
			t.Fatalf("zeroed item still listed: %v", inv.Items)
		}
	}

	if _, err := fx.svc.RemoveItem(ctx, ch.HexID(), "Rope", 5, "p1"); !errors.Is(err, ErrBadQuantity) {
		t.Fatalf("over-remove: got %v, want ErrBadQuantity", err)
	}
	if _, err := fx.svc.RemoveItem(ctx, ch.HexID(), "Anvil", 1, "p1"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("missing item: got %v, want ErrItemNotFound", err)
	}
}
