package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventStockReserved      = "StockReserved"
	EventStockConsumed      = "StockConsumed"
)

// Envelope wraps every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     int64  `json:"order_id"`
	UserID      string `json:"user_id"`
	Items       []Item `json:"items"`
	TotalPoints int    `json:"total_points"`
}

type StatusChangedPayload struct {
	OrderID int64  `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	ByRole  string `json:"by_role"`
}

type OrderCancelledPayload struct {
	OrderID      int64  `json:"order_id"`
	UserID       string `json:"user_id"`
	RefundPoints int    `json:"refund_points"`
}

type StockMovedPayload struct {
	OrderID int64  `json:"order_id"`
	Items   []Item `json:"items"`
}
