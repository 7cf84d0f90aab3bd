package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending for delivery"
	OrderStatusDelivered OrderStatus = "Order delivered"
	OrderStatusCompleted OrderStatus = "Order completed"
	OrderStatusCancelled OrderStatus = "Order cancelled"
)

type Order struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	InvoiceNumber string      `json:"invoice_number"`
	Subtotal      float64     `json:"subtotal"`
	TaxAmount     float64     `json:"tax_amount"`
	Total         float64     `json:"total"`
	Status        OrderStatus `json:"status"`
	Lines         []OrderLine `json:"lines,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// OrderLine freezes the product name and unit price as they were at
// purchase time. Later catalog edits never touch these rows.
type OrderLine struct {
	ID          int64     `json:"id"`
	OrderID     uuid.UUID `json:"order_id"`
	ProductID   int64     `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   float64   `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	Subtotal    float64   `json:"subtotal"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderSummary is what a successful checkout hands back for display.
type OrderSummary struct {
	OrderID       uuid.UUID   `json:"order_id"`
	InvoiceNumber string      `json:"invoice_number"`
	InvoiceDate   time.Time   `json:"invoice_date"`
	Lines         []OrderLine `json:"lines"`
	Subtotal      float64     `json:"subtotal"`
	TaxAmount     float64     `json:"tax_amount"`
	Total         float64     `json:"total"`
}

type UpdateOrderRequest struct {
	InvoiceNumber *string      `json:"invoice_number,omitempty" validate:"omitempty,min=1,max=64"`
	Total         *float64     `json:"total,omitempty" validate:"omitempty,gte=0"`
	Status        *OrderStatus `json:"status,omitempty" validate:"omitempty,oneof='Pending for delivery' 'Order delivered' 'Order completed' 'Order cancelled'"`
}

type PaginatedResponse struct {
	Data     any `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}
