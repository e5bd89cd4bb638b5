package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Alturino/checkout/internal/domain"
)

// orderFilterClause renders the WHERE clause shared by FindOrders,
// CountOrders and SummarizeOrders.
func orderFilterClause(f domain.OrderFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	add := func(condition string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}
	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.OrderStatus != nil {
		add("order_status = $%d", f.OrderStatus.String())
	}
	if f.PaymentStatus != nil {
		add("payment_status = $%d", f.PaymentStatus.String())
	}
	if f.From != nil {
		add("order_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("order_date < $%d", *f.To)
	}
	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

func orderByClause(f domain.OrderFilter) string {
	direction := "DESC"
	if f.Ascending {
		direction = "ASC"
	}
	column := "order_date"
	if f.SortBy == domain.SortByOrderTotal {
		column = "order_total"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", column, direction, direction)
}

func (q *Queries) FindOrders(c context.Context, f domain.OrderFilter) ([]Order, error) {
	f = f.Normalize()
	where, args := orderFilterClause(f)
	args = append(args, f.Limit, f.Offset())
	query := fmt.Sprintf(
		"SELECT %s FROM orders %s %s LIMIT $%d OFFSET $%d",
		orderColumns,
		where,
		orderByClause(f),
		len(args)-1,
		len(args),
	)
	rows, err := q.db.Query(c, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (q *Queries) CountOrders(c context.Context, f domain.OrderFilter) (int64, error) {
	where, args := orderFilterClause(f)
	row := q.db.QueryRow(c, fmt.Sprintf("SELECT count(*) FROM orders %s", where), args...)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type SummarizeOrdersRow struct {
	OrderStatus string         `json:"order_status"`
	Count       int64          `json:"count"`
	Revenue     pgtype.Numeric `json:"revenue"`
}

func (q *Queries) SummarizeOrders(c context.Context, f domain.OrderFilter) ([]SummarizeOrdersRow, error) {
	where, args := orderFilterClause(f)
	query := fmt.Sprintf(
		"SELECT order_status, count(*), COALESCE(sum(order_total), 0)::numeric(14,2) FROM orders %s GROUP BY order_status ORDER BY order_status",
		where,
	)
	rows, err := q.db.Query(c, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []SummarizeOrdersRow{}
	for rows.Next() {
		var i SummarizeOrdersRow
		if err := rows.Scan(&i.OrderStatus, &i.Count, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
