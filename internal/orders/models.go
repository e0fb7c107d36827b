package orders

import (
	"time"

	"github.com/merchstore/go-points-orders/internal/inventory"
)

// Item is one order line. Unit price is snapshotted at checkout; later
// catalog price changes never touch existing orders.
type Item struct {
	SKU        string `json:"sku"`
	Qty        int    `json:"qty"`
	UnitPoints int    `json:"unit_points"`
	LinePoints int    `json:"line_points"`
}

// HistoryEntry records one status change. From is empty on the entry written
// at creation.
type HistoryEntry struct {
	TS     time.Time `json:"ts"`
	From   Status    `json:"from,omitempty"`
	To     Status    `json:"to"`
	ByRole string    `json:"by_role"`
}

type Order struct {
	ID          int64          `json:"id"`
	UserID      string         `json:"user_id"`
	Status      Status         `json:"status"`
	Items       []Item         `json:"items"`
	TotalPoints int            `json:"total_points"`
	Reserved    bool           `json:"reserved"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	History     []HistoryEntry `json:"history"`
}

// Lines projects the order's items into the shape stock operations take.
func (o Order) Lines() []inventory.Line {
	out := make([]inventory.Line, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, inventory.Line{SKU: it.SKU, Qty: it.Qty})
	}
	return out
}
