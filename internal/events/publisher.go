package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrderPlaced is published after a checkout commits. Downstream consumers
// (fulfillment, analytics) key on the order id.
type OrderPlaced struct {
	OrderID       uuid.UUID         `json:"order_id"`
	UserID        uuid.UUID         `json:"user_id"`
	InvoiceNumber string            `json:"invoice_number"`
	Total         float64           `json:"total"`
	Lines         []OrderPlacedLine `json:"lines"`
	PlacedAt      time.Time         `json:"placed_at"`
}

type OrderPlacedLine struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event *OrderPlaced) error
	Close() error
}
