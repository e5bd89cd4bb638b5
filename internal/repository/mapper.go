package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/Alturino/checkout/internal/domain"
	"github.com/Alturino/checkout/internal/money"
)

func NumericFromMoney(m money.Money) pgtype.Numeric {
	d := m.Decimal()
	return pgtype.Numeric{
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Int:              d.Coefficient(),
		NaN:              false,
		Valid:            true,
	}
}

func MoneyFromNumeric(n pgtype.Numeric) money.Money {
	if !n.Valid || n.NaN || n.Int == nil {
		return money.Zero()
	}
	return money.New(decimal.NewFromBigInt(n.Int, n.Exp))
}

func (p Product) Domain() domain.Product {
	return domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         MoneyFromNumeric(p.Price),
		StockQuantity: p.Quantity,
		IsActive:      p.IsActive,
	}
}

func (i CartItem) Domain() domain.CartItem {
	return domain.CartItem{
		ID:        i.ID,
		CartID:    i.CartID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: MoneyFromNumeric(i.UnitPrice),
		Subtotal:  MoneyFromNumeric(i.Subtotal),
	}
}

func (c Cart) Domain(items []CartItem) domain.Cart {
	cart := domain.Cart{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      make([]domain.CartItem, 0, len(items)),
		LastUpdate: c.LastUpdate.Time,
	}
	for _, item := range items {
		cart.Items = append(cart.Items, item.Domain())
	}
	return cart
}

func (i OrderItem) Domain() domain.OrderItem {
	return domain.OrderItem{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: MoneyFromNumeric(i.UnitPrice),
		Subtotal:  MoneyFromNumeric(i.Subtotal),
		CreatedAt: i.CreatedAt.Time,
		UpdatedAt: i.UpdatedAt.Time,
	}
}

func (o Order) Domain(items []OrderItem) domain.Order {
	domainItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		domainItems = append(domainItems, item.Domain())
	}
	return o.WithItems(domainItems)
}

// WithItems attaches already mapped items to the order row.
func (o Order) WithItems(items []domain.OrderItem) domain.Order {
	return domain.Order{
		ID:            o.ID,
		UserID:        o.UserID,
		OrderDate:     o.OrderDate.Time,
		OrderTotal:    MoneyFromNumeric(o.OrderTotal),
		OrderStatus:   domain.OrderStatus(o.OrderStatus),
		PaymentStatus: domain.PaymentStatus(o.PaymentStatus),
		LastUpdated:   o.LastUpdated.Time,
		ShippingID:    o.ShippingID,
		Items:         items,
	}
}

// OrdersDomain joins orders with their items, keeping the order of orders.
func OrdersDomain(orders []Order, items []OrderItem) []domain.Order {
	byOrder := make(map[uuid.UUID][]OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	result := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, o.Domain(byOrder[o.ID]))
	}
	return result
}

func (r SummarizeOrdersRow) Domain() domain.StatusTally {
	return domain.StatusTally{
		Status:  domain.OrderStatus(r.OrderStatus),
		Count:   r.Count,
		Revenue: MoneyFromNumeric(r.Revenue),
	}
}

func NewInsertOrderItemsParams(items []domain.OrderItem) []InsertOrderItemsParams {
	params := make([]InsertOrderItemsParams, 0, len(items))
	for _, item := range items {
		params = append(params, InsertOrderItemsParams{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: NumericFromMoney(item.UnitPrice),
			Subtotal:  NumericFromMoney(item.Subtotal),
		})
	}
	return params
}
