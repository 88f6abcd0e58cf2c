package service

import (
	"context"
	"encoding/json"
	"log"

	"orderbridge/fanout-svc/internal/domain"

	"github.com/segmentio/kafka-go"
)

// Consumer moves order events from the orders topic to per-restaurant Redis
// channels. Events whose restaurant is missing or inactive are dropped and
// logged, never delivered unscoped.
type Consumer struct {
	Reader *kafka.Reader
	Store  StoreInterface
}

func NewConsumer(reader *kafka.Reader, store StoreInterface) *Consumer {
	return &Consumer{
		Reader: reader,
		Store:  store,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	log.Println("[fanout-svc] starting order event consumer...")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[fanout-svc] error reading message: %v", err)
			continue
		}

		var event domain.OrderEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			log.Printf("[fanout-svc] error unmarshaling message: %v", err)
			continue
		}

		c.ProcessEvent(ctx, event)
	}
}

func (c *Consumer) ProcessEvent(ctx context.Context, event domain.OrderEvent) {
	if event.RestaurantUID == "" {
		log.Printf("[fanout-svc] dropping %s event %s without restaurant uid", event.Type, event.OrderID)
		return
	}

	active, err := c.Store.RestaurantActive(ctx, event.RestaurantUID)
	if err != nil {
		log.Printf("[fanout-svc] tenant check failed for %s: %v", event.RestaurantUID, err)
		return
	}
	if !active {
		log.Printf("[fanout-svc] dropping %s event %s for unknown or inactive restaurant %s",
			event.Type, event.OrderID, event.RestaurantUID)
		return
	}

	if err := c.Store.Publish(ctx, event); err != nil {
		log.Printf("[fanout-svc] error publishing event %s: %v", event.OrderID, err)
		return
	}

	log.Printf("[fanout-svc] delivered %s event for order %s to restaurant %s",
		event.Type, event.OrderID, event.RestaurantUID)
}
