package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine denormalizes name, price and image at the time the vehicle was
// first added, so catalog changes never reprice an open cart.
type CartLine struct {
	VehicleID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is a copy of the cart state. Lines only carry positive quantities.
type CartSnapshot struct {
	Lines      []CartLine      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Locked     bool            `json:"locked"`
	Version    uint64          `json:"version"`
	CapturedAt time.Time       `json:"captured_at"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}
