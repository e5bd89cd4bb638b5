package request

import (
	"github.com/google/uuid"

	"github.com/Alturino/checkout/internal/domain"
)

type CreateOrder struct {
	OrderItems []OrderItem `validate:"required,gt=0,dive" json:"order_items"`
	ShippingID *uuid.UUID  `                              json:"shipping_id,omitempty"`
}

type OrderItem struct {
	ProductID uuid.UUID `validate:"required"       json:"product_id"`
	Quantity  int32     `validate:"required,gte=1" json:"quantity"`
}

func (r CreateOrder) Lines() []domain.Line {
	lines := make([]domain.Line, 0, len(r.OrderItems))
	for _, item := range r.OrderItems {
		lines = append(lines, domain.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func NewCreateOrder(lines []domain.Line, shippingID *uuid.UUID) CreateOrder {
	items := make([]OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, OrderItem{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return CreateOrder{OrderItems: items, ShippingID: shippingID}
}

type UpdateOrderStatus struct {
	OrderStatus   string `validate:"required,orderstatus"    json:"order_status"`
	PaymentStatus string `validate:"omitempty,paymentstatus" json:"payment_status,omitempty"`
}
