package mykafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicUserEvents    = "user_events"
	TopicCatalogEvents = "catalog_events"
	TopicCartEvents    = "cart_events"
	TopicReviewEvents  = "review_events"
	TopicChatEvents    = "chat_events"
)

func Topics() []string {
	return []string{
		TopicUserEvents,
		TopicCatalogEvents,
		TopicCartEvents,
		TopicReviewEvents,
		TopicChatEvents,
	}
}

type Producer struct {
	writer *kafka.Writer
}

// NewProducer returns a producer for the given brokers. With no brokers
// configured the producer is a no-op, so the service runs without Kafka.
func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return &Producer{}, nil
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}

	return &Producer{writer: w}, nil
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event interface{}) error {
	if p == nil || p.writer == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}

	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
