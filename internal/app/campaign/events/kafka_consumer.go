package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tavern.local/internal/platform/metrics"
)

type KafkaConsumer struct {
	reader    *kafka.Reader
	coll      *mongo.Collection
	batchSize int
	interval  time.Duration
}

func NewKafkaConsumer(brokers []string, topic string, db *mongo.Database) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  "campaign-events-consumer",
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		coll:      db.Collection("notifications"),
		batchSize: 100,
		interval:  time.Second,
	}
}

func (k *KafkaConsumer) Run(ctx context.Context) {
	batch := make([]Event, 0, k.batchSize)
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	// 用于非阻塞读取 Kafka
	msgCh := make(chan Event, k.batchSize)

	// 启动读取协程
	go func() {
		for {
			msg, err := k.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					close(msgCh)
					return
				}
				slog.Error("kafka read failed", "err", err)
				continue
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				slog.Error("unmarshal event failed", "err", err)
				continue
			}
			msgCh <- event
		}
	}()

	for {
		select {
		case <-ctx.Done():
			k.flush(batch)
			return

		case event, ok := <-msgCh:
			if !ok {
				k.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= k.batchSize {
				k.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				k.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (k *KafkaConsumer) flush(batch []Event) {
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
	if _, err := k.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false)); err != nil {
		slog.Error("kafka consumer: insert failed", "err", err, "count", len(batch))
		return
	}
	slog.Debug("kafka consumer: flushed", "count", len(batch))
}

func (k *KafkaConsumer) Close() {
	k.reader.Close()
}
