package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a trackable good owned by exactly one team. SKU is unique within
// the team; cost, price and the initial quantity baseline are non-negative.
type Item struct {
	ID              int64           `json:"id"`
	TeamID          int64           `json:"team_id"`
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Category        string          `json:"category,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	LocationID      *int64          `json:"location_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Location is a named place within a team where stock physically resides.
// Name is unique per team. Deleting a location nullifies the references on
// historical ledger entries; the entries themselves are never removed.
type Location struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemFilter narrows item listings.
type ItemFilter struct {
	TeamID int64
	Search string
	Limit  int
	Offset int
}
