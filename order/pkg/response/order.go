package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/Alturino/checkout/internal/domain"
	"github.com/Alturino/checkout/internal/money"
)

type Order struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	OrderDate     time.Time   `json:"order_date"`
	OrderTotal    money.Money `json:"order_total"`
	OrderStatus   string      `json:"order_status"`
	PaymentStatus string      `json:"payment_status"`
	LastUpdated   time.Time   `json:"last_updated"`
	ShippingID    *uuid.UUID  `json:"shipping_id,omitempty"`
	OrderItems    []OrderItem `json:"order_items"`
}

type OrderItem struct {
	ID        uuid.UUID   `json:"id"`
	OrderID   uuid.UUID   `json:"order_id"`
	ProductID uuid.UUID   `json:"product_id"`
	Quantity  int32       `json:"quantity"`
	UnitPrice money.Money `json:"unit_price"`
	Subtotal  money.Money `json:"subtotal"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type OrderHistory struct {
	Orders     []Order    `json:"orders"`
	NextCursor *uuid.UUID `json:"next_cursor,omitempty"`
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func FromDomain(o domain.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItem{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		})
	}
	return Order{
		ID:            o.ID,
		UserID:        o.UserID,
		OrderDate:     o.OrderDate,
		OrderTotal:    o.OrderTotal,
		OrderStatus:   o.OrderStatus.String(),
		PaymentStatus: o.PaymentStatus.String(),
		LastUpdated:   o.LastUpdated,
		ShippingID:    o.ShippingID,
		OrderItems:    items,
	}
}

func FromDomains(orders []domain.Order) []Order {
	result := make([]Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, FromDomain(o))
	}
	return result
}

func FromPage(p domain.OrderPage) OrderPage {
	return OrderPage{Orders: FromDomains(p.Orders), Total: p.Total, Page: p.Page, Limit: p.Limit}
}
