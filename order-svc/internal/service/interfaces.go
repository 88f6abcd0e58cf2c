package service

import (
	"context"
	"net/http"

	"orderbridge/order-svc/internal/domain"
)

type Repository interface {
	GetRestaurant(uid, websiteRestaurantID string) (*domain.RegisteredRestaurant, error)
	RestaurantActive(uid string) (bool, error)
	TouchRestaurant(uid string) error
	GetActiveMapping(websiteRestaurantID, uid string) (*domain.WebsiteRestaurantMapping, error)
	CreateMapping(m *domain.WebsiteRestaurantMapping) error
	CreateHandshakeRequest(req *domain.HandshakeRequest) error
	GetHandshakeRequest(id string) (*domain.HandshakeRequest, error)
	ExpireHandshake(id string) (bool, error)
	CompleteHandshake(resp *domain.HandshakeResponse) (bool, error)
	GetHandshakeResponse(requestID string) (*domain.HandshakeResponse, error)
	ListPendingHandshakes(uid string) ([]domain.HandshakeRequest, error)
	FindOrderIDByNumber(orderNumber string) (string, error)
	CreateOrder(order *domain.Order) error
	GetOrder(id string) (*domain.Order, error)
	ListOrders(restaurantUID string) ([]domain.Order, error)
	UpdateOrderStatus(id, newStatus, expectedPrevious string) (bool, error)
}

type Cache interface {
	ReplayMarkerKey(restaurantUID, idempotencyKey string) string
	GetReplayMarker(ctx context.Context, key string) (string, error)
	SetReplayMarker(ctx context.Context, key, orderNumber string) error
	GetOrderNumberFormat(ctx context.Context, host string) (string, error)
	SetOrderNumberFormat(ctx context.Context, host, format string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, msg domain.KafkaMessage) error
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type HandshakeServiceInterface interface {
	Initiate(ctx context.Context, websiteRestaurantID, callbackURL, websiteDomain string) (*domain.HandshakeRequest, error)
	Poll(ctx context.Context, id string) (*PollResult, error)
	Respond(ctx context.Context, resp *domain.HandshakeResponse) error
	Pending(ctx context.Context, restaurantUID string) ([]domain.HandshakeRequest, error)
	PairingQR(handshakeRequestID string) ([]byte, error)
}

type IntakeServiceInterface interface {
	Receive(ctx context.Context, sub *domain.OrderSubmission) (*domain.Order, error)
	ReceiveLocal(ctx context.Context, headerUID, headerWebsiteID, headerIdemKey string, sub *domain.OrderSubmission) (*domain.Order, error)
	Get(id string) (*domain.Order, error)
	List(restaurantUID string) ([]domain.Order, error)
}

type StatusServiceInterface interface {
	UpdateStatus(ctx context.Context, orderID, newStatus, updatedBy, notes string) (*DeliveryResult, error)
}

type Dispatcher interface {
	Notify(ctx context.Context, order *domain.Order, payload domain.CallbackPayload) (*DeliveryResult, error)
}

var _ HandshakeServiceInterface = (*HandshakeService)(nil)
var _ IntakeServiceInterface = (*IntakeService)(nil)
var _ StatusServiceInterface = (*StatusService)(nil)
var _ Dispatcher = (*CallbackDispatcher)(nil)
