package models

import "time"

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
)

// OrderEvent is published after an order is written or changes status.
type OrderEvent struct {
	Type           string      `json:"type"`
	OrderID        string      `json:"orderId"`
	UserID         string      `json:"userId"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previousStatus,omitempty"`
	TotalAmount    float64     `json:"totalAmount"`
	CouponCode     string      `json:"couponCode,omitempty"`
	OccurredAt     time.Time   `json:"occurredAt"`
}
