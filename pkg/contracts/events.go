package contracts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Queue and channel names shared by the order service and its consumers.
const (
	// OrderCreatedQueue is the durable queue the email consumer reads from.
	OrderCreatedQueue = "order_created"
	// OrdersChannel is the redis pub/sub channel the live relay subscribes to.
	OrdersChannel = "orders"
)

// OrderCreated is the wire contract between the order service and every
// downstream consumer. Consumers must ignore unknown fields and must not
// fail on absent ones beyond the fields they actually need. The event is a
// snapshot taken at emission time, not a live view of the order row.
type OrderCreated struct {
	OrderID   int64           `json:"orderId"`
	UserID    int64           `json:"userId"`
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
}
