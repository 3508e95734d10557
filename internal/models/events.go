package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeProductCreated = "PRODUCT_CREATED"
	EventTypeProductDeleted = "PRODUCT_DELETED"
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeOrderConfirmed = "ORDER_CONFIRMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductSnapshot is the full product field set carried in lifecycle events.
type ProductSnapshot struct {
	ProductID   int64           `json:"product_id"`
	Code        string          `json:"code"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
}

// ProductCreatedEvent published when a product enters the catalog
type ProductCreatedEvent struct {
	BaseEvent
	Product ProductSnapshot `json:"product"`
}

// ProductDeletedEvent published when a product leaves the catalog
type ProductDeletedEvent struct {
	BaseEvent
	Product ProductSnapshot `json:"product"`
}

// OrderPlacedEvent published when checkout commits an order
type OrderPlacedEvent struct {
	BaseEvent
	OrderID   int64           `json:"order_id"`
	Label     string          `json:"label"`
	Email     string          `json:"email"`
	Total     decimal.Decimal `json:"total"`
	Confirmed bool            `json:"confirmed"`
	Items     []OrderItemData `json:"items"`
}

// OrderConfirmedEvent published on the deferred confirmation transition
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	Email   string `json:"email"`
}

// OrderItemData represents line data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Code      string          `json:"code"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}
