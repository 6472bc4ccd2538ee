package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tavern.local/internal/app/campaign/events"
)

// 窄接口表达 service 对仓储的依赖，repo 包的具体类型在组装时满足它们。

type CampaignStore interface {
	GetByID(ctx context.Context, id string) *Campaign
	Create(ctx context.Context, c *Campaign) *Campaign
	Update(ctx context.Context, c *Campaign) *Campaign
	LogicDelete(ctx context.Context, id string) bool
	FindByInviteCode(ctx context.Context, code string) (*Campaign, error)
}

type CharacterStore interface {
	GetByID(ctx context.Context, id string) *Character
	Update(ctx context.Context, c *Character) *Character
}

type InventoryStore interface {
	FindByCharacter(ctx context.Context, characterID string) (*Inventory, error)
	Create(ctx context.Context, inv *Inventory) *Inventory
	Update(ctx context.Context, inv *Inventory) *Inventory
}

type Sequencer interface {
	Next(ctx context.Context, name string) (uint64, error)
}

const inviteSequence = "campaignInvite"

// Service 承载有业务规则的操作：建团发邀请码、入团退团、
// 角色挂靠、转账、背包增删。纯 CRUD 不经过这里，handler 直连仓储。
type Service struct {
	campaigns   CampaignStore
	characters  CharacterStore
	inventories InventoryStore
	seq         Sequencer
	collector   events.Collector
}

func NewService(campaigns CampaignStore, characters CharacterStore, inventories InventoryStore, seq Sequencer, collector events.Collector) *Service {
	return &Service{
		campaigns:   campaigns,
		characters:  characters,
		inventories: inventories,
		seq:         seq,
		collector:   collector,
	}
}

func (s *Service) emit(e events.Event) {
	if s.collector == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	s.collector.Collect(e)
}

// CreateCampaign 建团并签发邀请码。拿不到序号时照样建团，
// 邀请码留空，之后可以补发。
func (s *Service) CreateCampaign(ctx context.Context, c *Campaign, ownerID string) (*Campaign, error) {
	if err := ValidateCampaign(c); err != nil {
		return nil, err
	}
	c.OwnerID = ownerID
	if c.MemberIDs == nil {
		c.MemberIDs = []string{}
	}
	if c.CharacterIDs == nil {
		c.CharacterIDs = []string{}
	}
	if seq, err := s.seq.Next(ctx, inviteSequence); err != nil {
		slog.Error("invite sequence failed", "err", err)
	} else if code, err := InviteCodeFromSeq(seq); err != nil {
		slog.Error("invite encode failed", "seq", seq, "err", err)
	} else {
		c.InviteCode = code
	}
	created := s.campaigns.Create(ctx, c)
	if created == nil {
		return nil, fmt.Errorf("create campaign: %w", ErrStoreUnavailable)
	}
	return created, nil
}

// JoinByInviteCode 凭邀请码入团，幂等：已在团内返回 ErrAlreadyMember。
func (s *Service) JoinByInviteCode(ctx context.Context, code string, userID string) (*Campaign, error) {
	c, err := s.campaigns.FindByInviteCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if c.HasMember(userID) {
		return nil, ErrAlreadyMember
	}
	c.MemberIDs = append(c.MemberIDs, userID)
	updated := s.campaigns.Update(ctx, c)
	if updated == nil {
		return nil, fmt.Errorf("join campaign: %w", ErrStoreUnavailable)
	}
	s.emit(events.Event{
		Type:       events.TypeMemberJoined,
		CampaignID: updated.HexID(),
		ActorID:    userID,
	})
	return updated, nil
}

// RemoveMember 踢人/退团。actor 必须是 GM 本人或被移除者自己。
// GM 不能被移除。
func (s *Service) RemoveMember(ctx context.Context, campaignID, memberID, actorID string) (*Campaign, error) {
	c := s.campaigns.GetByID(ctx, campaignID)
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	if actorID != c.OwnerID && actorID != memberID {
		return nil, ErrForbidden
	}
	if memberID == c.OwnerID {
		return nil, ErrForbidden
	}
	kept := c.MemberIDs[:0]
	found := false
	for _, id := range c.MemberIDs {
		if id == memberID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return nil, ErrNotMember
	}
	c.MemberIDs = kept
	updated := s.campaigns.Update(ctx, c)
	if updated == nil {
		return nil, fmt.Errorf("remove member: %w", ErrStoreUnavailable)
	}
	s.emit(events.Event{
		Type:       events.TypeMemberLeft,
		CampaignID: updated.HexID(),
		ActorID:    actorID,
		Subject:    memberID,
	})
	return updated, nil
}

// AttachCharacter 把角色挂进团。角色必须属于团内成员。
func (s *Service) AttachCharacter(ctx context.Context, campaignID, characterID, actorID string) (*Campaign, error) {
	c := s.campaigns.GetByID(ctx, campaignID)
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	ch := s.characters.GetByID(ctx, characterID)
	if ch == nil {
		return nil, ErrCharacterNotFound
	}
	if ch.OwnerID != actorID && c.OwnerID != actorID {
		return nil, ErrForbidden
	}
	if !c.HasMember(ch.OwnerID) {
		return nil, ErrNotMember
	}
	for _, id := range c.CharacterIDs {
		if id == characterID {
			return c, nil // 已挂靠，幂等
		}
	}
	c.CharacterIDs = append(c.CharacterIDs, characterID)
	updated := s.campaigns.Update(ctx, c)
	if updated == nil {
		return nil, fmt.Errorf("attach character: %w", ErrStoreUnavailable)
	}
	ch.CampaignID = campaignID
	if s.characters.Update(ctx, ch) == nil {
		slog.Warn("character backref update failed", "character", characterID)
	}
	s.emit(events.Event{
		Type:       events.TypeCharacterJoined,
		CampaignID: campaignID,
		ActorID:    actorID,
		Subject:    ch.Name,
	})
	return updated, nil
}

// DetachCharacter 把角色摘出团。
func (s *Service) DetachCharacter(ctx context.Context, campaignID, characterID, actorID string) (*Campaign, error) {
	c := s.campaigns.GetByID(ctx, campaignID)
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	ch := s.characters.GetByID(ctx, characterID)
	if ch == nil {
		return nil, ErrCharacterNotFound
	}
	if ch.OwnerID != actorID && c.OwnerID != actorID {
		return nil, ErrForbidden
	}
	kept := c.CharacterIDs[:0]
	found := false
	for _, id := range c.CharacterIDs {
		if id == characterID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return nil, ErrCharacterNotFound
	}
	c.CharacterIDs = kept
	updated := s.campaigns.Update(ctx, c)
	if updated == nil {
		return nil, fmt.Errorf("detach character: %w", ErrStoreUnavailable)
	}
	ch.CampaignID = ""
	if s.characters.Update(ctx, ch) == nil {
		slog.Warn("character backref update failed", "character", characterID)
	}
	s.emit(events.Event{
		Type:       events.TypeCharacterLeft,
		CampaignID: campaignID,
		ActorID:    actorID,
		Subject:    ch.Name,
	})
	return updated, nil
}

// TransferCurrency 角色间转账。先扣后加、不跨币种换算、不开事务：
// 两次写之间进程挂掉会少加一笔，这里接受（单币种账目可对账恢复），
// 余额不足在任何写发生前就拒绝。
func (s *Service) TransferCurrency(ctx context.Context, fromID, toID string, amount Currency, actorID string) error {
	if amount.Gold < 0 || amount.Silver < 0 || amount.Copper < 0 {
		return ErrBadQuantity
	}
	if amount.Gold == 0 && amount.Silver == 0 && amount.Copper == 0 {
		return ErrBadQuantity
	}
	from := s.characters.GetByID(ctx, fromID)
	if from == nil {
		return ErrCharacterNotFound
	}
	to := s.characters.GetByID(ctx, toID)
	if to == nil {
		return ErrCharacterNotFound
	}
	if from.OwnerID != actorID {
		return ErrForbidden
	}
	if from.Currency.Gold < amount.Gold ||
		from.Currency.Silver < amount.Silver ||
		from.Currency.Copper < amount.Copper {
		return ErrInsufficientFunds
	}

	from.Currency.Gold -= amount.Gold
	from.Currency.Silver -= amount.Silver
	from.Currency.Copper -= amount.Copper
	if s.characters.Update(ctx, from) == nil {
		return fmt.Errorf("debit %s: %w", fromID, ErrStoreUnavailable)
	}

	to.Currency.Gold += amount.Gold
	to.Currency.Silver += amount.Silver
	to.Currency.Copper += amount.Copper
	if s.characters.Update(ctx, to) == nil {
		return fmt.Errorf("credit %s: %w", toID, ErrStoreUnavailable)
	}

	s.emit(events.Event{
		Type:       events.TypeCurrencyMoved,
		CampaignID: from.CampaignID,
		ActorID:    actorID,
		Subject:    from.Name + " -> " + to.Name,
	})
	return nil
}

// AddItem 往角色背包加物品，没背包就懒建一份。同名物品合并数量。
func (s *Service) AddItem(ctx context.Context, characterID string, item Item, actorID string) (*Inventory, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if item.Quantity <= 0 {
		return nil, ErrBadQuantity
	}
	ch := s.characters.GetByID(ctx, characterID)
	if ch == nil {
		return nil, ErrCharacterNotFound
	}
	if ch.OwnerID != actorID {
		return nil, ErrForbidden
	}

	inv, err := s.inventories.FindByCharacter(ctx, characterID)
	if err != nil {
		inv = &Inventory{CharacterID: characterID, Items: []Item{}}
		if inv = s.inventories.Create(ctx, inv); inv == nil {
			return nil, fmt.Errorf("create inventory: %w", ErrStoreUnavailable)
		}
	}

	merged := false
	for i := range inv.Items {
		if inv.Items[i].Name == item.Name {
			inv.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		inv.Items = append(inv.Items, item)
	}
	updated := s.inventories.Update(ctx, inv)
	if updated == nil {
		return nil, fmt.Errorf("update inventory: %w", ErrStoreUnavailable)
	}
	s.emit(events.Event{
		Type:       events.TypeItemAdded,
		CampaignID: ch.CampaignID,
		ActorID:    actorID,
		Subject:    item.Name,
	})
	return updated, nil
}

// RemoveItem 从背包扣数量，扣到 0 的物品整条移除。
func (s *Service) RemoveItem(ctx context.Context, characterID, itemName string, quantity int, actorID string) (*Inventory, error) {
	if quantity <= 0 {
		return nil, ErrBadQuantity
	}
	ch := s.characters.GetByID(ctx, characterID)
	if ch == nil {
		return nil, ErrCharacterNotFound
	}
	if ch.OwnerID != actorID {
		return nil, ErrForbidden
	}
	inv, err := s.inventories.FindByCharacter(ctx, characterID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range inv.Items {
		if inv.Items[i].Name == itemName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrItemNotFound
	}
	if inv.Items[idx].Quantity < quantity {
		return nil, ErrBadQuantity
	}
	inv.Items[idx].Quantity -= quantity
	if inv.Items[idx].Quantity == 0 {
		inv.Items = append(inv.Items[:idx], inv.Items[idx+1:]...)
	}
	updated := s.inventories.Update(ctx, inv)
	if updated == nil {
		return nil, fmt.Errorf("update inventory: %w", ErrStoreUnavailable)
	}
	s.emit(events.Event{
		Type:       events.TypeItemRemoved,
		CampaignID: ch.CampaignID,
		ActorID:    actorID,
		Subject:    itemName,
	})
	return updated, nil
}
