package domain

import "github.com/shopspring/decimal"

type VehicleType string

const (
	VehicleNew  VehicleType = "new"
	VehicleUsed VehicleType = "used"
)

func (t VehicleType) Valid() bool {
	return t == VehicleNew || t == VehicleUsed
}

type Specs struct {
	TopSpeed     string `json:"topSpeed"`
	Acceleration string `json:"acceleration"`
	Handling     string `json:"handling"`
	Seats        int    `json:"seats"`
}

// Vehicle is an immutable catalog entry.
type Vehicle struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Type     VehicleType     `json:"type"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Gallery  []string        `json:"gallery,omitempty"`
	Specs    Specs           `json:"specs"`
	Features []string        `json:"features,omitempty"`
}
