package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, user_id, order_date, order_total, order_status, payment_status, last_updated, shipping_id`

const insertOrder = `INSERT INTO orders (id, user_id, order_total, order_status, payment_status, shipping_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + orderColumns + `
`

type InsertOrderParams struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	OrderTotal    pgtype.Numeric `json:"order_total"`
	OrderStatus   string         `json:"order_status"`
	PaymentStatus string         `json:"payment_status"`
	ShippingID    *uuid.UUID     `json:"shipping_id"`
}

func (q *Queries) InsertOrder(c context.Context, arg InsertOrderParams) (Order, error) {
	row := q.db.QueryRow(c, insertOrder,
		arg.ID,
		arg.UserID,
		arg.OrderTotal,
		arg.OrderStatus,
		arg.PaymentStatus,
		arg.ShippingID,
	)
	return scanOrder(row)
}

type InsertOrderItemsParams struct {
	ID        uuid.UUID      `json:"id"`
	OrderID   uuid.UUID      `json:"order_id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int32          `json:"quantity"`
	UnitPrice pgtype.Numeric `json:"unit_price"`
	Subtotal  pgtype.Numeric `json:"subtotal"`
}

func (q *Queries) InsertOrderItems(c context.Context, arg []InsertOrderItemsParams) (int64, error) {
	return q.db.CopyFrom(
		c,
		pgx.Identifier{"order_items"},
		[]string{"id", "order_id", "product_id", "quantity", "unit_price", "subtotal"},
		pgx.CopyFromSlice(len(arg), func(i int) ([]any, error) {
			item := arg[i]
			return []any{item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Subtotal}, nil
		}),
	)
}

const findOrderById = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) FindOrderById(c context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(c, findOrderById, id)
	return scanOrder(row)
}

const findOrderByIdForUpdate = `SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR UPDATE
`

func (q *Queries) FindOrderByIdForUpdate(c context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(c, findOrderByIdForUpdate, id)
	return scanOrder(row)
}

const orderItemColumns = `id, order_id, product_id, quantity, unit_price, subtotal, created_at, updated_at`

const findOrderItemsByOrderIds = `SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, product_id
`

func (q *Queries) FindOrderItemsByOrderIds(c context.Context, orderIDs []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItemsByOrderIds, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.ProductID,
			&i.Quantity,
			&i.UnitPrice,
			&i.Subtotal,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateOrderStatus = `UPDATE orders
SET order_status = $2, payment_status = $3, last_updated = now()
WHERE id = $1
RETURNING ` + orderColumns + `
`

type UpdateOrderStatusParams struct {
	ID            uuid.UUID `json:"id"`
	OrderStatus   string    `json:"order_status"`
	PaymentStatus string    `json:"payment_status"`
}

func (q *Queries) UpdateOrderStatus(c context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(c, updateOrderStatus, arg.ID, arg.OrderStatus, arg.PaymentStatus)
	return scanOrder(row)
}

const findOrderHistory = `SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY order_date DESC, id DESC
LIMIT $2
`

type FindOrderHistoryParams struct {
	UserID uuid.UUID `json:"user_id"`
	Limit  int32     `json:"limit"`
}

func (q *Queries) FindOrderHistory(c context.Context, arg FindOrderHistoryParams) ([]Order, error) {
	rows, err := q.db.Query(c, findOrderHistory, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

const findOrderHistoryAfter = `SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1 AND (order_date, id) < ($2::timestamptz, $3::uuid)
ORDER BY order_date DESC, id DESC
LIMIT $4
`

type FindOrderHistoryAfterParams struct {
	UserID          uuid.UUID          `json:"user_id"`
	CursorOrderDate pgtype.Timestamptz `json:"cursor_order_date"`
	CursorID        uuid.UUID          `json:"cursor_id"`
	Limit           int32              `json:"limit"`
}

func (q *Queries) FindOrderHistoryAfter(
	c context.Context,
	arg FindOrderHistoryAfterParams,
) ([]Order, error) {
	rows, err := q.db.Query(c, findOrderHistoryAfter,
		arg.UserID,
		arg.CursorOrderDate,
		arg.CursorID,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.OrderDate,
		&i.OrderTotal,
		&i.OrderStatus,
		&i.PaymentStatus,
		&i.LastUpdated,
		&i.ShippingID,
	)
	return i, err
}
