package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"orderbridge/order-svc/internal/domain"
	"orderbridge/order-svc/internal/storage"

	"github.com/google/uuid"
)

const defaultCurrency = "USD"

type IntakeService struct {
	repo      Repository
	cache     Cache
	publisher EventPublisher
}

func NewIntakeService(repo Repository, cache Cache, publisher EventPublisher) *IntakeService {
	return &IntakeService{repo: repo, cache: cache, publisher: publisher}
}

// Receive runs the website intake pipeline: validate, resolve the tenant
// mapping (auto-creating it for an already-registered restaurant), enforce
// replay and duplicate protection, persist, then fire the best-effort side
// effects. The resolved restaurant UID always wins over anything the client
// put in the payload.
func (s *IntakeService) Receive(ctx context.Context, sub *domain.OrderSubmission) (*domain.Order, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	if err := s.resolveMapping(sub); err != nil {
		return nil, err
	}

	if err := s.checkReplay(ctx, sub); err != nil {
		return nil, err
	}

	if existingID, err := s.repo.FindOrderIDByNumber(sub.OrderNumber); err == nil {
		return nil, &DuplicateOrderError{OrderID: existingID, OrderNumber: sub.OrderNumber}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}

	order := buildOrder(sub)
	if err := s.repo.CreateOrder(order); err != nil {
		if storage.IsUniqueViolation(err) {
			// Lost the race against a concurrent submit of the same number.
			existingID, lookupErr := s.repo.FindOrderIDByNumber(sub.OrderNumber)
			if lookupErr == nil {
				return nil, &DuplicateOrderError{OrderID: existingID, OrderNumber: sub.OrderNumber}
			}
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.afterPersist(ctx, order)
	return order, nil
}

// ReceiveLocal is the first-party intake path. Tenant identity comes from
// headers, and a payload that embeds a different restaurant UID is rejected
// before anything else runs.
func (s *IntakeService) ReceiveLocal(ctx context.Context, headerUID, headerWebsiteID, headerIdemKey string, sub *domain.OrderSubmission) (*domain.Order, error) {
	if headerUID == "" {
		return nil, &MissingFieldError{Field: "X-Restaurant-UID"}
	}
	if headerWebsiteID == "" {
		return nil, &MissingFieldError{Field: "X-Website-Restaurant-ID"}
	}
	if headerIdemKey == "" {
		return nil, &MissingFieldError{Field: "X-Idempotency-Key"}
	}
	if sub.AppRestaurantUID != "" && sub.AppRestaurantUID != headerUID {
		return nil, ErrUIDMismatch
	}

	sub.AppRestaurantUID = headerUID
	sub.WebsiteRestaurantID = headerWebsiteID
	sub.IdempotencyKey = headerIdemKey
	return s.Receive(ctx, sub)
}

func (s *IntakeService) Get(id string) (*domain.Order, error) {
	order, err := s.repo.GetOrder(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *IntakeService) List(restaurantUID string) ([]domain.Order, error) {
	return s.repo.ListOrders(restaurantUID)
}

// resolveMapping confirms an active mapping exists for the submission's
// tenant pair, creating one only when the restaurant itself is already
// registered. Intake never fabricates a restaurant.
func (s *IntakeService) resolveMapping(sub *domain.OrderSubmission) error {
	_, err := s.repo.GetActiveMapping(sub.WebsiteRestaurantID, sub.AppRestaurantUID)
	if err == nil {
		active, activeErr := s.repo.RestaurantActive(sub.AppRestaurantUID)
		if activeErr != nil {
			return fmt.Errorf("restaurant lookup: %w", activeErr)
		}
		if !active {
			return ErrRestaurantNotFound
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("mapping lookup: %w", err)
	}

	rest, err := s.repo.GetRestaurant(sub.AppRestaurantUID, sub.WebsiteRestaurantID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRestaurantNotFound
	}
	if err != nil {
		return fmt.Errorf("restaurant lookup: %w", err)
	}
	if !rest.IsActive {
		return ErrRestaurantNotFound
	}

	callbackURL := sub.CallbackURL
	if callbackURL == "" {
		callbackURL = rest.CallbackURL
	}
	mapping := &domain.WebsiteRestaurantMapping{
		WebsiteRestaurantID: sub.WebsiteRestaurantID,
		AppRestaurantUID:    sub.AppRestaurantUID,
		WebsiteDomain:       hostOf(sub.CallbackURL),
		CallbackURL:         callbackURL,
		// No handshake behind this mapping; it is order-derived.
		HandshakeRequestID: "",
	}
	if err := s.repo.CreateMapping(mapping); err != nil {
		return fmt.Errorf("auto-create mapping: %w", err)
	}
	return nil
}

// checkReplay rejects an idempotency key that was already consumed by a
// different order number. This is independent of duplicate order-number
// detection: the same key replayed with fresh numbers is still a replay.
func (s *IntakeService) checkReplay(ctx context.Context, sub *domain.OrderSubmission) error {
	key := s.cache.ReplayMarkerKey(sub.AppRestaurantUID, sub.IdempotencyKey)
	stored, err := s.cache.GetReplayMarker(ctx, key)
	if err != nil {
		// Duplicate order-number detection still holds the line.
		log.Printf("[order-svc] warning: replay marker lookup failed: %v", err)
		return nil
	}
	if stored != "" && stored != sub.OrderNumber {
		return ErrIdempotencyReplay
	}
	return nil
}

func (s *IntakeService) afterPersist(ctx context.Context, order *domain.Order) {
	if err := s.repo.TouchRestaurant(order.RestaurantUID); err != nil {
		log.Printf("[order-svc] warning: failed to refresh last_seen for %s: %v", order.RestaurantUID, err)
	}

	key := s.cache.ReplayMarkerKey(order.RestaurantUID, order.IdempotencyKey)
	if err := s.cache.SetReplayMarker(ctx, key, order.OrderNumber); err != nil {
		log.Printf("[order-svc] warning: failed to store replay marker: %v", err)
	}

	if s.publisher != nil {
		err := s.publisher.PublishOrderEvent(ctx, domain.KafkaMessage{
			Type:          "order_received",
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			RestaurantUID: order.RestaurantUID,
			Status:        order.Status,
			Amount:        order.Amount,
			CustomerName:  domain.CustomerName(order.Customer),
			Timestamp:     time.Now(),
		})
		if err != nil {
			log.Printf("[order-svc] warning: failed to publish order event: %v", err)
		}
	}
}

func buildOrder(sub *domain.OrderSubmission) *domain.Order {
	currency := sub.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	status := domain.StatusPending
	if sub.Status == domain.StatusApproved {
		// Websites may pre-approve orders paid online.
		status = sub.Status
	}
	return &domain.Order{
		ID:                  "ord-" + uuid.NewString(),
		OrderNumber:         sub.OrderNumber,
		RestaurantUID:       sub.AppRestaurantUID,
		WebsiteRestaurantID: sub.WebsiteRestaurantID,
		Amount:              sub.Amount,
		Currency:            currency,
		Status:              status,
		Customer:            sub.Customer,
		CallbackURL:         sub.CallbackURL,
		IdempotencyKey:      sub.IdempotencyKey,
		PaymentMethod:       sub.PaymentMethod,
		Notes:               sub.Notes,
		TestOrder:           sub.TestOrder,
		Items:               sub.Items,
	}
}

func validateSubmission(sub *domain.OrderSubmission) error {
	switch {
	case sub.WebsiteRestaurantID == "":
		return &MissingFieldError{Field: "website_restaurant_id"}
	case sub.AppRestaurantUID == "":
		return &MissingFieldError{Field: "app_restaurant_uid"}
	case sub.OrderNumber == "":
		return &MissingFieldError{Field: "orderNumber"}
	case sub.Amount <= 0:
		return &MissingFieldError{Field: "amount"}
	case len(sub.Items) == 0:
		return &MissingFieldError{Field: "items"}
	case len(sub.Customer) == 0:
		return &MissingFieldError{Field: "user"}
	case sub.CallbackURL == "":
		return &MissingFieldError{Field: "callback_url"}
	case sub.IdempotencyKey == "":
		return &MissingFieldError{Field: "idempotency_key"}
	}
	return nil
}
