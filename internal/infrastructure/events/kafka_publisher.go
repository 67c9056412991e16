package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"accmarket/internal/domain/entity"
	"accmarket/pkg/logger"
)

// KafkaPublisher writes domain events to one topic. Messages are keyed by
// shop so every event of a shop and its accs lands on the same partition.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: newWriter(brokers, topic)}
}

// newWriter is asynchronous: Publish only enqueues, so a slow broker never
// holds a request. Delivery failures are logged by logCompletion.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  true,
		Completion:             logCompletion,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
		ReadTimeout:            5 * time.Second,
		BatchTimeout:           20 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

func logCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		logger.Warn("Failed to deliver event %s for %s: %v", eventType(m), string(m.Key), err)
	}
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event-type" {
			return string(h.Value)
		}
	}
	return "unknown"
}

func (p *KafkaPublisher) Publish(ctx context.Context, event entity.DomainEvent) error {
	msg, err := message(event)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func message(event entity.DomainEvent) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", event.Type, err)
	}
	key := event.ShopID
	if key == "" {
		key = event.EntityID
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  event.At,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}
