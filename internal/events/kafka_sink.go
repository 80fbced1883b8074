package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

// KafkaSink publishes commerce events to a Kafka topic. The message key is
// the first item's sku so partition ordering lines up with the emitter's
// per-sku emission guarantee; snapshot and purchase events key on the event
// name instead.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers ...string) *KafkaSink {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  "commerce-events",
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaSink{writer: w}
}

func (s *KafkaSink) LogEvent(ctx context.Context, event domain.CommerceEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal commerce event %s: %v", event.Name, err)
		return
	}

	key := event.Name
	if event.Name == domain.EventAddToCart || event.Name == domain.EventRemoveFromCart {
		if len(event.Items) > 0 {
			key = event.Items[0].ItemID
		}
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Name)},
		},
	}

	// Fire and forget: delivery is at-least-once and failures only get logged.
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("failed to publish commerce event %s: %v", event.Name, err)
	}
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
