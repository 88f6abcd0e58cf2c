package service

import (
	"context"

	"orderbridge/fanout-svc/internal/domain"
	"orderbridge/fanout-svc/internal/storage"
)

type StoreInterface interface {
	RestaurantActive(ctx context.Context, uid string) (bool, error)
	Publish(ctx context.Context, event domain.OrderEvent) error
}

type ConsumerInterface interface {
	Start(ctx context.Context)
	ProcessEvent(ctx context.Context, event domain.OrderEvent)
}

var _ StoreInterface = (*storage.Store)(nil)
var _ ConsumerInterface = (*Consumer)(nil)
