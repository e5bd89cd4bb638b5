package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Product struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Price     pgtype.Numeric     `json:"price"`
	Quantity  int32              `json:"quantity"`
	IsActive  bool               `json:"is_active"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Cart struct {
	ID         uuid.UUID          `json:"id"`
	UserID     uuid.UUID          `json:"user_id"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	LastUpdate pgtype.Timestamptz `json:"last_update"`
}

type CartItem struct {
	ID        uuid.UUID          `json:"id"`
	CartID    uuid.UUID          `json:"cart_id"`
	ProductID uuid.UUID          `json:"product_id"`
	Quantity  int32              `json:"quantity"`
	UnitPrice pgtype.Numeric     `json:"unit_price"`
	Subtotal  pgtype.Numeric     `json:"subtotal"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Order struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	OrderDate     pgtype.Timestamptz `json:"order_date"`
	OrderTotal    pgtype.Numeric     `json:"order_total"`
	OrderStatus   string             `json:"order_status"`
	PaymentStatus string             `json:"payment_status"`
	LastUpdated   pgtype.Timestamptz `json:"last_updated"`
	ShippingID    *uuid.UUID         `json:"shipping_id"`
}

type OrderItem struct {
	ID        uuid.UUID          `json:"id"`
	OrderID   uuid.UUID          `json:"order_id"`
	ProductID uuid.UUID          `json:"product_id"`
	Quantity  int32              `json:"quantity"`
	UnitPrice pgtype.Numeric     `json:"unit_price"`
	Subtotal  pgtype.Numeric     `json:"subtotal"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}
