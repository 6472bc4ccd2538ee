package campaign

import (
	"time"

	"tavern.local/internal/platform/store"
)

// Campaign 是一局跑团活动。InviteCode 由计数器 + sqids 生成，
// 建档后不变，玩家凭它入团。
type Campaign struct {
	store.Base `bson:",inline"`

	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	// OwnerID 即 GM，建团者。成员变更只有 GM 能做。
	OwnerID      string   `bson:"ownerId" json:"owner_id"`
	InviteCode   string   `bson:"inviteCode,omitempty" json:"invite_code,omitempty"`
	MemberIDs    []string `bson:"memberIds" json:"member_ids"`
	CharacterIDs []string `bson:"characterIds" json:"character_ids"`
}

// HasMember 报告用户是否在团内（GM 视为成员）。
func (c *Campaign) HasMember(userID string) bool {
	if c.OwnerID == userID {
		return true
	}
	for _, id := range c.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Currency 是角色钱袋，单位各自独立，转账时不跨币种换算。
type Currency struct {
	Gold   int64 `bson:"gold" json:"gold"`
	Silver int64 `bson:"silver" json:"silver"`
	Copper int64 `bson:"copper" json:"copper"`
}

// Character 玩家角色卡。CampaignID 为空表示还没入团的自由角色。
type Character struct {
	store.Base `bson:",inline"`

	CampaignID string         `bson:"campaignId,omitempty" json:"campaign_id,omitempty"`
	OwnerID    string         `bson:"ownerId" json:"owner_id"`
	Name       string         `bson:"name" json:"name"`
	Class      string         `bson:"class,omitempty" json:"class,omitempty"`
	Race       string         `bson:"race,omitempty" json:"race,omitempty"`
	Level      int            `bson:"level" json:"level"`
	HitPoints  int            `bson:"hitPoints" json:"hit_points"`
	MaxHP      int            `bson:"maxHp" json:"max_hp"`
	Abilities  map[string]int `bson:"abilities,omitempty" json:"abilities,omitempty"`
	Currency   Currency       `bson:"currency" json:"currency"`
}

// Monster 图鉴条目。CampaignID 为空表示全局图鉴，所有团可见。
type Monster struct {
	store.Base `bson:",inline"`

	CampaignID      string   `bson:"campaignId,omitempty" json:"campaign_id,omitempty"`
	Name            string   `bson:"name" json:"name"`
	Type            string   `bson:"type,omitempty" json:"type,omitempty"`
	ChallengeRating float64  `bson:"challengeRating" json:"challenge_rating"`
	HitPoints       int      `bson:"hitPoints" json:"hit_points"`
	ArmorClass      int      `bson:"armorClass" json:"armor_class"`
	Abilities       []string `bson:"abilities,omitempty" json:"abilities,omitempty"`
	Description     string   `bson:"description,omitempty" json:"description,omitempty"`
}

// Spell 法术条目，全局共享。
type Spell struct {
	store.Base `bson:",inline"`

	Name        string   `bson:"name" json:"name"`
	Level       int      `bson:"level" json:"level"`
	School      string   `bson:"school,omitempty" json:"school,omitempty"`
	CastingTime string   `bson:"castingTime,omitempty" json:"casting_time,omitempty"`
	Range       string   `bson:"range,omitempty" json:"range,omitempty"`
	Components  string   `bson:"components,omitempty" json:"components,omitempty"`
	Duration    string   `bson:"duration,omitempty" json:"duration,omitempty"`
	Classes     []string `bson:"classes,omitempty" json:"classes,omitempty"`
	Description string   `bson:"description,omitempty" json:"description,omitempty"`
}

// Item / Inventory 背包。一个角色一份背包，物品按名字合并数量。
type Item struct {
	Name        string  `bson:"name" json:"name"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Weight      float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
}

type Inventory struct {
	store.Base `bson:",inline"`

	CharacterID string `bson:"characterId" json:"character_id"`
	Items       []Item `bson:"items" json:"items"`
}

// Note 团内笔记。Shared 为假时只有作者可见。
type Note struct {
	store.Base `bson:",inline"`

	CampaignID string   `bson:"campaignId" json:"campaign_id"`
	AuthorID   string   `bson:"authorId" json:"author_id"`
	Title      string   `bson:"title" json:"title"`
	Body       string   `bson:"body,omitempty" json:"body,omitempty"`
	Tags       []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Shared     bool     `bson:"shared" json:"shared"`
}

// Session 一次团期记录/排期。
type Session struct {
	store.Base `bson:",inline"`

	CampaignID  string     `bson:"campaignId" json:"campaign_id"`
	Number      int        `bson:"number" json:"number"`
	Title       string     `bson:"title,omitempty" json:"title,omitempty"`
	Summary     string     `bson:"summary,omitempty" json:"summary,omitempty"`
	ScheduledAt *time.Time `bson:"scheduledAt,omitempty" json:"scheduled_at,omitempty"`
	AttendeeIDs []string   `bson:"attendeeIds,omitempty" json:"attendee_ids,omitempty"`
}

// Notification 是事件管道落库后的通知记录，按团维度查询。
type Notification struct {
	store.Base `bson:",inline"`

	CampaignID string    `bson:"campaignId" json:"campaign_id"`
	Type       string    `bson:"type" json:"type"`
	ActorID    string    `bson:"actorId,omitempty" json:"actor_id,omitempty"`
	Subject    string    `bson:"subject,omitempty" json:"subject,omitempty"`
	Message    string    `bson:"message,omitempty" json:"message,omitempty"`
	At         time.Time `bson:"at" json:"at"`
}
