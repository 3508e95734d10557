package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          int64           `db:"id" json:"id"`
	Code        string          `db:"code" json:"code"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	IsAvailable bool            `db:"is_available" json:"is_available"`
	BarcodePath string          `db:"barcode_path" json:"barcode_path,omitempty"`
	CategoryID  *int64          `db:"category_id" json:"category_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// CartItem represents one (session, product) association in a cart.
// At most one row exists per pair; re-adding a product is a no-op.
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"-"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
}

// CartLine is a cart item joined with its product, as returned to callers.
type CartLine struct {
	ID        int64           `db:"id" json:"id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Code      string          `db:"code" json:"code"`
	Title     string          `db:"title" json:"title"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Quantity  int             `db:"quantity" json:"quantity"`
	AddedAt   time.Time       `db:"added_at" json:"added_at"`
}

// TotalPrice is derived, never stored.
func (l CartLine) TotalPrice() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSummary is the full cart state for a session.
type CartSummary struct {
	Items      []CartLine      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Order is an immutable financial record created from a cart snapshot.
// Total is computed once at creation time and never recomputed, even if
// product prices change afterwards. The only permitted mutation is the
// one-way transition confirmed=false -> confirmed=true.
type Order struct {
	ID        int64           `db:"id" json:"id"`
	Label     string          `db:"label" json:"label"`
	Email     string          `db:"email" json:"email"`
	SessionID string          `db:"session_id" json:"-"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Confirmed bool            `db:"confirmed" json:"confirmed"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem captures one product's price at order-creation time.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
}

// TotalPrice is the captured price times quantity.
func (i OrderItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Product history actions
const (
	HistoryActionCreated = "created"
	HistoryActionDeleted = "deleted"
)

// ProductHistory is an append-only lifecycle snapshot. The snapshot fields
// are denormalized copies so the record survives product deletion; ProductID
// is cleared on the deletion record.
type ProductHistory struct {
	ID          int64           `db:"id" json:"id"`
	ProductID   *int64          `db:"product_id" json:"product_id,omitempty"`
	Code        string          `db:"code" json:"code"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Action      string          `db:"action" json:"action"`
	RecordedAt  time.Time       `db:"recorded_at" json:"recorded_at"`
}

// Tag is a shared reference entity, many-to-many with products.
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ProductTag joins products and tags; pairs are de-duplicated.
type ProductTag struct {
	ProductID int64 `db:"product_id" json:"product_id"`
	TagID     int64 `db:"tag_id" json:"tag_id"`
}

// Category is a named reference entity; a product holds at most one.
type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
