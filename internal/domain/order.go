package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

// OrderStatusCompleted is the only status written: orders exist only after a
// captured payment.
const OrderStatusCompleted OrderStatus = "completed"

func (s OrderStatus) String() string {
	return string(s)
}

type OrderItem struct {
	OrderID   uuid.UUID       `json:"order_id"`
	VehicleID string          `json:"vehicle_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	PaymentID   string          `json:"payment_id"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ItemsTotal sums quantity × price over the order's items.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
