package storage

import (
	"context"
	"encoding/json"

	"orderbridge/order-svc/internal/domain"

	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(writer *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// PublishOrderEvent emits an order event keyed by restaurant UID so that
// downstream fan-out partitions per tenant.
func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, msg domain.KafkaMessage) error {
	payload, _ := json.Marshal(msg)
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RestaurantUID),
		Value: payload,
	})
}
