package repository

import (
	"context"

	"github.com/google/uuid"
)

const findProductById = `SELECT id, name, price, quantity, is_active, created_at, updated_at
FROM products
WHERE id = $1
`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductById, id)
	return scanProduct(row)
}

const findProductByIdForShare = `SELECT id, name, price, quantity, is_active, created_at, updated_at
FROM products
WHERE id = $1
FOR SHARE
`

func (q *Queries) FindProductByIdForShare(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductByIdForShare, id)
	return scanProduct(row)
}

const findProductByIdForUpdate = `SELECT id, name, price, quantity, is_active, created_at, updated_at
FROM products
WHERE id = $1
FOR UPDATE
`

func (q *Queries) FindProductByIdForUpdate(c context.Context, id uuid.UUID) (Product, error) {
	row := q.db.QueryRow(c, findProductByIdForUpdate, id)
	return scanProduct(row)
}

const findProductsByIds = `SELECT id, name, price, quantity, is_active, created_at, updated_at
FROM products
WHERE id = ANY($1::uuid[])
ORDER BY id
`

func (q *Queries) FindProductsByIds(c context.Context, ids []uuid.UUID) ([]Product, error) {
	rows, err := q.db.Query(c, findProductsByIds, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Product{}
	for rows.Next() {
		i, err := scanProduct(rows)
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

const decrementProductQuantity = `UPDATE products
SET quantity = quantity - $2, updated_at = now()
WHERE id = $1 AND quantity >= $2
`

type DecrementProductQuantityParams struct {
	ID       uuid.UUID `json:"id"`
	Quantity int32     `json:"quantity"`
}

func (q *Queries) DecrementProductQuantity(
	c context.Context,
	arg DecrementProductQuantityParams,
) (int64, error) {
	result, err := q.db.Exec(c, decrementProductQuantity, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const incrementProductQuantity = `UPDATE products
SET quantity = quantity + $2, updated_at = now()
WHERE id = $1
`

type IncrementProductQuantityParams struct {
	ID       uuid.UUID `json:"id"`
	Quantity int32     `json:"quantity"`
}

func (q *Queries) IncrementProductQuantity(
	c context.Context,
	arg IncrementProductQuantityParams,
) (int64, error) {
	result, err := q.db.Exec(c, incrementProductQuantity, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var i Product
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Price,
		&i.Quantity,
		&i.IsActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
