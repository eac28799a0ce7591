package mailer_test

import (
	"testing"
	"time"

	"github.com/sodrunberkicau/microservice-docker-alp/internal/email/mailer"
	"github.com/sodrunberkicau/microservice-docker-alp/pkg/contracts"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRenderOrderBody(t *testing.T) {
	body := mailer.RenderOrderBody(contracts.OrderCreated{
		OrderID:   30,
		UserID:    42,
		ProductID: 7,
		Quantity:  2,
		Price:     decimal.RequireFromString("50.00"),
		Total:     decimal.RequireFromString("100.00"),
		Status:    "pending",
		CreatedAt: time.Now(),
	})

	assert.Contains(t, body, "Hi User 42")
	assert.Contains(t, body, "Product ID: 7")
	assert.Contains(t, body, "Quantity: 2")
	assert.Contains(t, body, "Price: $50")
	assert.Contains(t, body, "Total: $100")
	assert.Contains(t, body, "Status: pending")
}
