package events

import "github.com/charleschow/sfbuy/internal/core/market"

// BatchEvent is published once before a set of orders is submitted.
type BatchEvent struct {
	Orders     int   `json:"orders"`
	TotalCents int64 `json:"total_cents"`
	Split      bool  `json:"split"`
}

// OrderEvent is published on each step of one order's lifecycle.
// Order is nil on EventOrderGaveUp when no poll ever returned the order.
type OrderEvent struct {
	OrderID string           `json:"order_id"`
	Spec    market.OrderSpec `json:"-"`
	Order   *market.Order    `json:"order,omitempty"`
	Polls   int              `json:"polls,omitempty"`
	Batch   bool             `json:"batch,omitempty"`
}
