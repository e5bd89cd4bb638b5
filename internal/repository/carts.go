package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const insertCartIfNotExists = `INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`

func (q *Queries) InsertCartIfNotExists(c context.Context, userID uuid.UUID) error {
	_, err := q.db.Exec(c, insertCartIfNotExists, userID)
	return err
}

const findCartByUserId = `SELECT id, user_id, created_at, last_update
FROM carts
WHERE user_id = $1
`

func (q *Queries) FindCartByUserId(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartByUserId, userID)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt, &i.LastUpdate)
	return i, err
}

const findCartByUserIdForUpdate = `SELECT id, user_id, created_at, last_update
FROM carts
WHERE user_id = $1
FOR UPDATE
`

func (q *Queries) FindCartByUserIdForUpdate(c context.Context, userID uuid.UUID) (Cart, error) {
	row := q.db.QueryRow(c, findCartByUserIdForUpdate, userID)
	var i Cart
	err := row.Scan(&i.ID, &i.UserID, &i.CreatedAt, &i.LastUpdate)
	return i, err
}

const touchCart = `UPDATE carts
SET last_update = now()
WHERE id = $1
RETURNING last_update
`

func (q *Queries) TouchCart(c context.Context, id uuid.UUID) (pgtype.Timestamptz, error) {
	row := q.db.QueryRow(c, touchCart, id)
	var lastUpdate pgtype.Timestamptz
	err := row.Scan(&lastUpdate)
	return lastUpdate, err
}

const cartItemColumns = `id, cart_id, product_id, quantity, unit_price, subtotal, created_at, updated_at`

const findCartItemsByCartId = `SELECT ` + cartItemColumns + `
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at, id
`

func (q *Queries) FindCartItemsByCartId(c context.Context, cartID uuid.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(c, findCartItemsByCartId, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CartItem{}
	for rows.Next() {
		i, err := scanCartItem(rows)
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

const findCartItemByProductId = `SELECT ` + cartItemColumns + `
FROM cart_items
WHERE cart_id = $1 AND product_id = $2
`

type FindCartItemByProductIdParams struct {
	CartID    uuid.UUID `json:"cart_id"`
	ProductID uuid.UUID `json:"product_id"`
}

func (q *Queries) FindCartItemByProductId(
	c context.Context,
	arg FindCartItemByProductIdParams,
) (CartItem, error) {
	row := q.db.QueryRow(c, findCartItemByProductId, arg.CartID, arg.ProductID)
	return scanCartItem(row)
}

const findCartItemById = `SELECT ` + cartItemColumns + `
FROM cart_items
WHERE id = $1 AND cart_id = $2
`

type FindCartItemByIdParams struct {
	ID     uuid.UUID `json:"id"`
	CartID uuid.UUID `json:"cart_id"`
}

func (q *Queries) FindCartItemById(c context.Context, arg FindCartItemByIdParams) (CartItem, error) {
	row := q.db.QueryRow(c, findCartItemById, arg.ID, arg.CartID)
	return scanCartItem(row)
}

const insertCartItem = `INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + cartItemColumns + `
`

type InsertCartItemParams struct {
	ID        uuid.UUID      `json:"id"`
	CartID    uuid.UUID      `json:"cart_id"`
	ProductID uuid.UUID      `json:"product_id"`
	Quantity  int32          `json:"quantity"`
	UnitPrice pgtype.Numeric `json:"unit_price"`
	Subtotal  pgtype.Numeric `json:"subtotal"`
}

func (q *Queries) InsertCartItem(c context.Context, arg InsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(c, insertCartItem,
		arg.ID,
		arg.CartID,
		arg.ProductID,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
	)
	return scanCartItem(row)
}

const updateCartItem = `UPDATE cart_items
SET quantity = $3, unit_price = $4, subtotal = $5, updated_at = now()
WHERE id = $1 AND cart_id = $2
RETURNING ` + cartItemColumns + `
`

type UpdateCartItemParams struct {
	ID        uuid.UUID      `json:"id"`
	CartID    uuid.UUID      `json:"cart_id"`
	Quantity  int32          `json:"quantity"`
	UnitPrice pgtype.Numeric `json:"unit_price"`
	Subtotal  pgtype.Numeric `json:"subtotal"`
}

func (q *Queries) UpdateCartItem(c context.Context, arg UpdateCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(c, updateCartItem,
		arg.ID,
		arg.CartID,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
	)
	return scanCartItem(row)
}

const deleteCartItem = `DELETE FROM cart_items
WHERE id = $1 AND cart_id = $2
`

type DeleteCartItemParams struct {
	ID     uuid.UUID `json:"id"`
	CartID uuid.UUID `json:"cart_id"`
}

func (q *Queries) DeleteCartItem(c context.Context, arg DeleteCartItemParams) (int64, error) {
	result, err := q.db.Exec(c, deleteCartItem, arg.ID, arg.CartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteCartItemsByCartId = `DELETE FROM cart_items
WHERE cart_id = $1
`

func (q *Queries) DeleteCartItemsByCartId(c context.Context, cartID uuid.UUID) (int64, error) {
	result, err := q.db.Exec(c, deleteCartItemsByCartId, cartID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func scanCartItem(row rowScanner) (CartItem, error) {
	var i CartItem
	err := row.Scan(
		&i.ID,
		&i.CartID,
		&i.ProductID,
		&i.Quantity,
		&i.UnitPrice,
		&i.Subtotal,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
