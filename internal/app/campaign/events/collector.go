package events

import (
	"sync"
	"time"
)

// 团内事件
type Event struct {
	Type       string    `json:"type"`
	CampaignID string    `json:"campaign_id"`
	ActorID    string    `json:"actor_id,omitempty"`  //触发事件的用户
	Subject    string    `json:"subject,omitempty"`   //事件主体（角色名、物品名等）
	Message    string    `json:"message,omitempty"`   //展示给玩家的文案
	At         time.Time `json:"at"`
}

// 事件类型常量。消费侧按 type 维度打指标。
const (
	TypeMemberJoined    = "member_joined"
	TypeMemberLeft      = "member_left"
	TypeCharacterJoined = "character_joined"
	TypeCharacterLeft   = "character_left"
	TypeCurrencyMoved   = "currency_moved"
	TypeItemAdded       = "item_added"
	TypeItemRemoved     = "item_removed"
	TypeSessionPlanned  = "session_planned"
)

// Collector 收集器接口（方便后续换 Kafka）
type Collector interface {
	Collect(event Event)
	Close()
}

// ChannelCollector 基于 channel 的收集器。
// closed 的检查和发送必须在同一把锁里，否则 Close 和并发的
// Collect 之间会往已关闭的 channel 发送而 panic。
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan Event
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan Event, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
	default:
		// 通道满了，丢弃
	}
}

func (c *ChannelCollector) Events() <-chan Event {
	return c.ch
}

func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}
