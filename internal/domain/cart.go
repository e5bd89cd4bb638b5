package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/checkout/internal/money"
)

type Cart struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Items      []CartItem `json:"items"`
	LastUpdate time.Time  `json:"last_update"`
}

type CartItem struct {
	ID        uuid.UUID   `json:"id"`
	CartID    uuid.UUID   `json:"cart_id"`
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int32       `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
	Subtotal  money.Money `json:"subtotal"`
}

type CartSummary struct {
	TotalItems int64       `json:"total_items"`
	Subtotal   money.Money `json:"subtotal"`
}

func NewCartItem(cartID, productID uuid.UUID, quantity int32, unitPrice money.Money) CartItem {
	return CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Multiply(int64(quantity)),
	}
}

// WithQuantity keeps the snapshot price and recomputes the subtotal.
func (i CartItem) WithQuantity(quantity int32) CartItem {
	i.Quantity = quantity
	i.Subtotal = i.UnitPrice.Multiply(int64(quantity))
	return i
}

func (i CartItem) Repriced(unitPrice money.Money) CartItem {
	i.UnitPrice = unitPrice
	i.Subtotal = unitPrice.Multiply(int64(i.Quantity))
	return i
}

func (c Cart) Summary() CartSummary {
	summary := CartSummary{Subtotal: money.Zero()}
	for _, item := range c.Items {
		summary.TotalItems += int64(item.Quantity)
		summary.Subtotal = summary.Subtotal.Add(item.Subtotal)
	}
	return summary
}

func (c Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Lines converts the cart into order lines.
func (c Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

// Satisfiable reports whether every item can be fulfilled from products.
func (c Cart) Satisfiable(products map[uuid.UUID]Product) bool {
	for _, item := range c.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.CanSupply(item.Quantity) {
			return false
		}
	}
	return true
}
