package events

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tavern.local/internal/platform/metrics"
)

// notificationDoc 是落库形态。字段和 campaign.Notification 的 bson
// 标签保持一致，但这里不引 campaign 包，避免 service -> events 成环。
type notificationDoc struct {
	CampaignID string    `bson:"campaignId"`
	Type       string    `bson:"type"`
	ActorID    string    `bson:"actorId,omitempty"`
	Subject    string    `bson:"subject,omitempty"`
	Message    string    `bson:"message,omitempty"`
	At         time.Time `bson:"at"`
	IsDeleted  bool      `bson:"isDeleted"`
}

// 消费团内事件，批量落成通知
type Consumer struct {
	coll      *mongo.Collection
	collector *ChannelCollector
	batchSize int
	interval  time.Duration
}

func NewConsumer(db *mongo.Database, collector *ChannelCollector) *Consumer {
	return &Consumer{
		coll:      db.Collection("notifications"),
		collector: collector,
		batchSize: 100,         //批量写入大小
		interval:  time.Second, //最大等待时间
	}
}

// 阻塞 消费循环
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]Event, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.flush(batch) //清理剩余事件
			return
		case event, ok := <-c.collector.Events():
			if !ok {
				c.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				c.flush(batch)
				batch = batch[:0] //清空切片，但保留容量不变，避免反复分配内存
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (c *Consumer) flush(batch []Event) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	docs := make([]interface{}, 0, len(batch))
	for _, e := range batch {
		docs = append(docs, notificationOf(e))
		metrics.NotificationEvents.WithLabelValues(e.Type).Inc()
	}
	// Ordered=false：个别坏文档不拖累整批
	if _, err := c.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		slog.Error("notifications: insert failed", "err", err, "count", len(batch))
		return
	}
	slog.Debug("notifications: flushed", "count", len(batch))
}

func notificationOf(e Event) notificationDoc {
	at := e.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return notificationDoc{
		CampaignID: e.CampaignID,
		Type:       e.Type,
		ActorID:    e.ActorID,
		Subject:    e.Subject,
		Message:    e.Message,
		At:         at,
	}
}
