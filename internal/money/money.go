// Package money is a fixed-point currency amount with two decimal places.
// Totals must be built with Add and Multiply only.
package money

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const Scale = 2

type Money struct {
	amount decimal.Decimal
}

func Zero() Money {
	return Money{amount: decimal.Zero}
}

// New rounds d half away from zero to Scale places.
func New(d decimal.Decimal) Money {
	return Money{amount: d.Round(Scale)}
}

func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("failed parsing money=%s with error=%w", s, err)
	}
	return New(d), nil
}

func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -Scale)}
}

func (m Money) Add(o Money) Money {
	return Money{amount: m.amount.Add(o.amount)}
}

func (m Money) Sub(o Money) Money {
	return Money{amount: m.amount.Sub(o.amount)}
}

func (m Money) Multiply(quantity int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(quantity))}
}

// Average divides m evenly across count, yielding zero when count is zero.
func (m Money) Average(count int64) Money {
	if count == 0 {
		return Zero()
	}
	return Money{amount: m.amount.DivRound(decimal.NewFromInt(count), Scale)}
}

func (m Money) Cmp(o Money) int {
	return m.amount.Cmp(o.amount)
}

func (m Money) Equal(o Money) bool {
	return m.amount.Equal(o.amount)
}

func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

func (m Money) String() string {
	return m.amount.StringFixed(Scale)
}

func Sum(values ...Money) Money {
	total := Zero()
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*m = Zero()
		return nil
	}
	parsed, err := FromString(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
