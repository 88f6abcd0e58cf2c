package domain

import "time"

// Handshake request states. A request only ever moves forward:
// pending -> processing -> completed | failed, or pending -> expired.
const (
	HandshakePending    = "pending"
	HandshakeProcessing = "processing"
	HandshakeCompleted  = "completed"
	HandshakeFailed     = "failed"
	HandshakeExpired    = "expired"
)

// Order statuses. Cancellation is allowed from any pre-dispatch status.
const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusPreparing  = "preparing"
	StatusReady      = "ready"
	StatusDispatched = "dispatched"
	StatusCancelled  = "cancelled"
)

type RegisteredRestaurant struct {
	AppRestaurantUID    string    `json:"app_restaurant_uid"`
	WebsiteRestaurantID string    `json:"website_restaurant_id"`
	RestaurantName      string    `json:"restaurant_name"`
	CallbackURL         string    `json:"callback_url"`
	IsActive            bool      `json:"is_active"`
	LastSeen            time.Time `json:"last_seen"`
	CreatedAt           time.Time `json:"created_at"`
}

type WebsiteRestaurantMapping struct {
	ID                  int       `json:"id"`
	WebsiteRestaurantID string    `json:"website_restaurant_id"`
	AppRestaurantUID    string    `json:"app_restaurant_uid"`
	WebsiteDomain       string    `json:"website_domain"`
	CallbackURL         string    `json:"callback_url"`
	HandshakeRequestID  string    `json:"handshake_request_id,omitempty"`
	IsActive            bool      `json:"is_active"`
	LastHandshake       time.Time `json:"last_handshake"`
	CreatedAt           time.Time `json:"created_at"`
}

type HandshakeRequest struct {
	ID                  string    `json:"handshake_request_id"`
	WebsiteRestaurantID string    `json:"website_restaurant_id"`
	CallbackURL         string    `json:"callback_url"`
	WebsiteDomain       string    `json:"website_domain"`
	Status              string    `json:"status"`
	TargetRestaurantUID string    `json:"target_restaurant_uid,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type HandshakeResponse struct {
	HandshakeRequestID string    `json:"handshake_request_id"`
	RestaurantUID      string    `json:"restaurant_uid"`
	DeviceLabel        string    `json:"device_label"`
	AppVersion         string    `json:"app_version"`
	Platform           string    `json:"platform"`
	Capabilities       []string  `json:"capabilities"`
	ResponseTimestamp  time.Time `json:"response_timestamp"`
}

type Order struct {
	ID                  string         `json:"id"`
	OrderNumber         string         `json:"orderNumber"`
	RestaurantUID       string         `json:"restaurant_uid"`
	WebsiteRestaurantID string         `json:"website_restaurant_id"`
	Amount              float64        `json:"amount"`
	Currency            string         `json:"currency"`
	Status              string         `json:"status"`
	Customer            map[string]any `json:"user"`
	CallbackURL         string         `json:"callback_url"`
	IdempotencyKey      string         `json:"idempotency_key"`
	PaymentMethod       string         `json:"paymentMethod,omitempty"`
	Notes               string         `json:"notes,omitempty"`
	TestOrder           bool           `json:"test_order"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	Items               []OrderItem    `json:"items"`
}

type OrderItem struct {
	ID             int     `json:"id,omitempty"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	Customizations string  `json:"customizations,omitempty"`
}

// OrderSubmission is the intake payload pushed by a website (or the
// first-party app). The resolved restaurant UID always wins over anything
// embedded in the payload.
type OrderSubmission struct {
	WebsiteRestaurantID string         `json:"website_restaurant_id"`
	AppRestaurantUID    string         `json:"app_restaurant_uid"`
	OrderNumber         string         `json:"orderNumber"`
	Amount              float64        `json:"amount"`
	Currency            string         `json:"currency,omitempty"`
	Status              string         `json:"status,omitempty"`
	Items               []OrderItem    `json:"items"`
	Customer            map[string]any `json:"user"`
	CallbackURL         string         `json:"callback_url"`
	IdempotencyKey      string         `json:"idempotency_key"`
	PaymentMethod       string         `json:"paymentMethod,omitempty"`
	Notes               string         `json:"notes,omitempty"`
	TestOrder           bool           `json:"test,omitempty"`
}

// KafkaMessage is the order event envelope published to the orders topic,
// keyed by restaurant UID so fan-out stays tenant-scoped.
type KafkaMessage struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	RestaurantUID string    `json:"restaurant_uid"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	CustomerName  string    `json:"customer_name"`
	Timestamp     time.Time `json:"timestamp"`
}

// CallbackPayload is what the dispatcher POSTs to a website callback URL.
type CallbackPayload struct {
	OrderID        string `json:"order_id"`
	OrderNumber    string `json:"orderNumber"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	UpdatedBy      string `json:"updated_by"`
	AppVersion     string `json:"app_version"`
	PreviousStatus string `json:"previous_status"`
	Notes          string `json:"notes,omitempty"`
}

var statusRank = map[string]int{
	StatusPending:    0,
	StatusApproved:   1,
	StatusPreparing:  2,
	StatusReady:      3,
	StatusDispatched: 4,
}

// CanTransition reports whether an order may move from one status to the
// next. Forward moves follow the pending->dispatched chain one step at a
// time; cancellation is allowed from any pre-dispatch status.
func CanTransition(from, to string) bool {
	if from == StatusCancelled || from == StatusDispatched {
		return false
	}
	if to == StatusCancelled {
		_, known := statusRank[from]
		return known
	}
	fromRank, okFrom := statusRank[from]
	toRank, okTo := statusRank[to]
	if !okFrom || !okTo {
		return false
	}
	return toRank == fromRank+1
}

// customerNameFields is the ordered list of keys tried when extracting a
// display name from the customer snapshot. Website payload schemas are not
// stable, so the lookup order is fixed here rather than scattered per caller.
var customerNameFields = []string{
	"name",
	"full_name",
	"fullName",
	"customer_name",
	"username",
	"contact_name",
}

const FallbackCustomerName = "Guest"

func CustomerName(customer map[string]any) string {
	for _, field := range customerNameFields {
		if v, ok := customer[field]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return FallbackCustomerName
}
