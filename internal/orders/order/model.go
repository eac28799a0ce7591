package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Order is the persisted row. A multi-item cart produces exactly one row:
// ProductID/Quantity/Price hold the first line item while Total covers the
// whole cart. Total is frozen at creation; it is never recomputed from the
// product catalog afterwards.
type Order struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Status    Status          `json:"status"`
	Path      *string         `json:"path"`
	CreatedAt time.Time       `json:"created_at"`
}

// Item is one line of an incoming cart.
type Item struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Listing is an order joined with product metadata at read time.
type Listing struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	ProductID   int64           `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Path        *string         `json:"path"`
	Total       decimal.Decimal `json:"total"`
}
