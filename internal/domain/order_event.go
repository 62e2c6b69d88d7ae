package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventOrderCompleted = "OrderCompleted"

// OrderCompleted is the outbox payload published once an order is stored.
// The game server consumes it to grant the purchased vehicles.
type OrderCompleted struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	PaymentID   string          `json:"payment_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderItem     `json:"items"`
	CompletedAt time.Time       `json:"completed_at"`
}

func NewOrderCompleted(o Order) OrderCompleted {
	return OrderCompleted{
		OrderID:     o.ID,
		UserID:      o.UserID,
		PaymentID:   o.PaymentID,
		TotalAmount: o.TotalAmount,
		Items:       o.Items,
		CompletedAt: o.CreatedAt,
	}
}
