package request

import "github.com/google/uuid"

type AddCartItem struct {
	ProductID uuid.UUID `validate:"required"       json:"product_id"`
	Quantity  int32     `validate:"required,gte=1" json:"quantity"`
}

// UpdateCartItem sets the absolute quantity; zero removes the item.
type UpdateCartItem struct {
	Quantity *int32 `validate:"required,gte=0" json:"quantity"`
}

type Checkout struct {
	ShippingID *uuid.UUID `json:"shipping_id,omitempty"`
}
