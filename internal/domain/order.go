package domain

import (
	"bytes"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/money"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !slices.Contains(OrderStatuses, status) {
		return "", inErrors.ErrInvalidStatus
	}
	return status, nil
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Cancellable reports whether a customer may cancel an order in state s.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

var PaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusFailed,
	PaymentStatusRefunded,
	PaymentStatusCancelled,
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if !slices.Contains(PaymentStatuses, status) {
		return "", inErrors.ErrInvalidStatus
	}
	return status, nil
}

func (s PaymentStatus) String() string {
	return string(s)
}

type Order struct {
	ID            uuid.UUID     `json:"id"`
	UserID        uuid.UUID     `json:"user_id"`
	OrderDate     time.Time     `json:"order_date"`
	OrderTotal    money.Money   `json:"order_total"`
	OrderStatus   OrderStatus   `json:"order_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	LastUpdated   time.Time     `json:"last_updated"`
	ShippingID    *uuid.UUID    `json:"shipping_id,omitempty"`
	Items         []OrderItem   `json:"items"`
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

func NewOrderItem(orderID, productID uuid.UUID, quantity int32, unitPrice money.Money) OrderItem {
	return OrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Multiply(int64(quantity)),
	}
}

func OrderTotal(items []OrderItem) money.Money {
	total := money.Zero()
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// Line is one requested (product, quantity) pair of an order.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

// MergeLines folds duplicate products into one line and orders the result by
// product id, the order in which stock rows get locked.
func MergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, inErrors.ErrEmptyOrder
	}
	merged := make(map[uuid.UUID]int64, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, inErrors.ErrInvalidQuantity
		}
		merged[line.ProductID] += int64(line.Quantity)
		if merged[line.ProductID] > math.MaxInt32 {
			return nil, inErrors.ErrInvalidQuantity
		}
	}
	result := make([]Line, 0, len(merged))
	for productID, quantity := range merged {
		result = append(result, Line{ProductID: productID, Quantity: int32(quantity)})
	}
	SortLines(result)
	return result, nil
}

func SortLines(lines []Line) {
	slices.SortFunc(lines, func(a, b Line) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type OrderSortField string

const (
	SortByOrderDate  OrderSortField = "order_date"
	SortByOrderTotal OrderSortField = "order_total"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type OrderFilter struct {
	UserID        *uuid.UUID     `json:"user_id,omitempty"`
	OrderStatus   *OrderStatus   `json:"order_status,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	From          *time.Time     `json:"from,omitempty"`
	To            *time.Time     `json:"to,omitempty"`
	SortBy        OrderSortField `json:"sort_by"`
	Ascending     bool           `json:"ascending"`
	Page          int            `json:"page"`
	Limit         int            `json:"limit"`
}

func (f OrderFilter) Normalize() OrderFilter {
	if f.SortBy != SortByOrderTotal {
		f.SortBy = SortByOrderDate
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

func (f OrderFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// OrderHistory is one page of a customer's orders, newest first.
// NextCursor is set only when more orders follow.
type OrderHistory struct {
	Orders     []Order    `json:"orders"`
	NextCursor *uuid.UUID `json:"next_cursor,omitempty"`
}
