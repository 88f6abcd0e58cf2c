package service

import "errors"

var (
	ErrRestaurantNotFound  = errors.New("restaurant not found, register first")
	ErrOrderNotFound       = errors.New("order not found")
	ErrHandshakeNotFound   = errors.New("handshake request not found")
	ErrHandshakeExpired    = errors.New("handshake request expired")
	ErrHandshakeTerminal   = errors.New("handshake request already resolved")
	ErrHandshakeIncomplete = errors.New("handshake marked completed but no response recorded")
	ErrIdempotencyReplay   = errors.New("idempotency key already used with a different order number")
	ErrUIDMismatch         = errors.New("restaurant uid in body does not match header")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrStaleStatus         = errors.New("order status changed concurrently")
	ErrDeliveryFailed      = errors.New("callback delivery failed")
)

// MissingFieldError names the first required field absent from a payload, so
// the caller knows what to fix.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

// DuplicateOrderError carries the existing order's id so the caller can
// reconcile instead of treating the conflict as a hard failure.
type DuplicateOrderError struct {
	OrderID     string
	OrderNumber string
}

func (e *DuplicateOrderError) Error() string {
	return "order " + e.OrderNumber + " already exists as " + e.OrderID
}
