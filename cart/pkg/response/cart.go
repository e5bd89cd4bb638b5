package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/checkout/internal/domain"
	"github.com/Alturino/checkout/internal/money"
)

type Cart struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	CartItems  []CartItem  `json:"cart_items"`
	TotalItems int64       `json:"total_items"`
	Subtotal   money.Money `json:"subtotal"`
	LastUpdate time.Time   `json:"last_update"`
}

type CartItem struct {
	ID        uuid.UUID   `json:"id"`
	CartID    uuid.UUID   `json:"cart_id"`
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int32       `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
	Subtotal  money.Money `json:"subtotal"`
}

type Summary struct {
	TotalItems int64       `json:"total_items"`
	Subtotal   money.Money `json:"subtotal"`
}

func FromCartItem(item domain.CartItem) CartItem {
	return CartItem{
		ID:        item.ID,
		CartID:    item.CartID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		Subtotal:  item.Subtotal,
	}
}

func FromCart(cart domain.Cart) Cart {
	summary := cart.Summary()
	items := make([]CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, FromCartItem(item))
	}
	return Cart{
		ID:         cart.ID,
		UserID:     cart.UserID,
		CartItems:  items,
		TotalItems: summary.TotalItems,
		Subtotal:   summary.Subtotal,
		LastUpdate: cart.LastUpdate,
	}
}

func FromSummary(s domain.CartSummary) Summary {
	return Summary{TotalItems: s.TotalItems, Subtotal: s.Subtotal}
}
