package domain

import "time"

// OrderEvent mirrors the envelope order-svc publishes on the orders topic.
type OrderEvent struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	RestaurantUID string    `json:"restaurant_uid"`
	Status        string    `json:"status"`
	Amount        float64   `json:"amount"`
	CustomerName  string    `json:"customer_name"`
	Timestamp     time.Time `json:"timestamp"`
}
