package domain

import (
	"github.com/google/uuid"

	"github.com/Alturino/checkout/internal/money"
)

// Product is the catalog's view of a sellable item. The checkout core only
// ever writes StockQuantity, through a reservation.
type Product struct {
	ID            uuid.UUID   `json:"id"`
	Name          string      `json:"name"`
	Price         money.Money `json:"price"`
	StockQuantity int32       `json:"stock_quantity"`
	IsActive      bool        `json:"is_active"`
}

func (p Product) CanSupply(quantity int32) bool {
	return p.IsActive && p.StockQuantity >= quantity
}
