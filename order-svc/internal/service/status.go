package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"orderbridge/order-svc/internal/domain"
)

// StatusService drives order status transitions. The website is notified
// first; the local row only advances after confirmed delivery, so approval
// and notification stay two separately observable outcomes.
type StatusService struct {
	repo       Repository
	dispatcher Dispatcher
	publisher  EventPublisher
	appVersion string
}

func NewStatusService(repo Repository, dispatcher Dispatcher, publisher EventPublisher, appVersion string) *StatusService {
	return &StatusService{repo: repo, dispatcher: dispatcher, publisher: publisher, appVersion: appVersion}
}

func (s *StatusService) UpdateStatus(ctx context.Context, orderID, newStatus, updatedBy, notes string) (*DeliveryResult, error) {
	order, err := s.repo.GetOrder(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}

	if !domain.CanTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	payload := domain.CallbackPayload{
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		Status:         newStatus,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		UpdatedBy:      updatedBy,
		AppVersion:     s.appVersion,
		PreviousStatus: order.Status,
		Notes:          notes,
	}

	result, err := s.dispatcher.Notify(ctx, order, payload)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	ok, err := s.repo.UpdateOrderStatus(order.ID, newStatus, order.Status)
	if err != nil {
		return result, fmt.Errorf("persist status: %w", err)
	}
	if !ok {
		// Someone else moved the order while we were delivering.
		return result, ErrStaleStatus
	}

	if s.publisher != nil {
		err := s.publisher.PublishOrderEvent(ctx, domain.KafkaMessage{
			Type:          "order_status_changed",
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			RestaurantUID: order.RestaurantUID,
			Status:        newStatus,
			Amount:        order.Amount,
			CustomerName:  domain.CustomerName(order.Customer),
			Timestamp:     time.Now(),
		})
		if err != nil {
			log.Printf("[order-svc] warning: failed to publish status event: %v", err)
		}
	}

	return result, nil
}
