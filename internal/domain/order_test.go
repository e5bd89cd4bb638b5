package domain

import (
	"bytes"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inErrors "github.com/Alturino/checkout/internal/errors"
	"github.com/Alturino/checkout/internal/money"
)

func TestOrderStatusCancellable(t *testing.T) {
	expected := map[OrderStatus]bool{
		OrderStatusPending:    true,
		OrderStatusProcessing: true,
		OrderStatusShipped:    false,
		OrderStatusDelivered:  false,
		OrderStatusCancelled:  false,
		OrderStatusRefunded:   false,
	}
	for _, status := range OrderStatuses {
		t.Run(fmt.Sprintf("given %s", status), func(t *testing.T) {
			assert.Equal(t, expected[status], status.Cancellable())
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	status, err := ParseOrderStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, inErrors.ErrInvalidStatus)

	payment, err := ParsePaymentStatus("COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusCompleted, payment)

	_, err = ParsePaymentStatus("PAID")
	assert.ErrorIs(t, err, inErrors.ErrInvalidStatus)
}

func TestOrderTotalEqualsSumOfSubtotals(t *testing.T) {
	orderID := uuid.New()
	prices := []string{"0.01", "0.10", "1.99", "19.95", "333.33"}
	items := []OrderItem{}
	expected := money.Zero()
	for i, p := range prices {
		price := money.MustFromString(p)
		quantity := int32(i*7 + 1)
		items = append(items, NewOrderItem(orderID, uuid.New(), quantity, price))
		expected = expected.Add(price.Multiply(int64(quantity)))
	}

	total := OrderTotal(items)
	assert.True(t, expected.Equal(total), "expected=%s actual=%s", expected, total)
	assert.Equal(t, "10136.13", total.String())
}

func TestMergeLines(t *testing.T) {
	p1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	p2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	p3 := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	tests := []struct {
		name        string
		input       []Line
		expected    []Line
		expectedErr error
	}{
		{
			name:        "given no lines should return empty order",
			input:       nil,
			expectedErr: inErrors.ErrEmptyOrder,
		},
		{
			name:        "given zero quantity should return invalid quantity",
			input:       []Line{{ProductID: p1, Quantity: 0}},
			expectedErr: inErrors.ErrInvalidQuantity,
		},
		{
			name:        "given negative quantity should return invalid quantity",
			input:       []Line{{ProductID: p1, Quantity: 1}, {ProductID: p2, Quantity: -1}},
			expectedErr: inErrors.ErrInvalidQuantity,
		},
		{
			name: "given duplicates summing past int32 should return invalid quantity",
			input: []Line{
				{ProductID: p1, Quantity: math.MaxInt32},
				{ProductID: p1, Quantity: math.MaxInt32},
				{ProductID: p1, Quantity: math.MaxInt32},
			},
			expectedErr: inErrors.ErrInvalidQuantity,
		},
		{
			name:        "given duplicates one past int32 should return invalid quantity",
			input:       []Line{{ProductID: p1, Quantity: math.MaxInt32}, {ProductID: p1, Quantity: 1}},
			expectedErr: inErrors.ErrInvalidQuantity,
		},
		{
			name:     "given duplicates summing to exactly int32 max should merge",
			input:    []Line{{ProductID: p2, Quantity: math.MaxInt32 - 1}, {ProductID: p2, Quantity: 1}},
			expected: []Line{{ProductID: p2, Quantity: math.MaxInt32}},
		},
		{
			name: "given duplicate products should merge and sort by product id",
			input: []Line{
				{ProductID: p3, Quantity: 1},
				{ProductID: p1, Quantity: 2},
				{ProductID: p3, Quantity: 4},
				{ProductID: p2, Quantity: 1},
			},
			expected: []Line{
				{ProductID: p1, Quantity: 2},
				{ProductID: p2, Quantity: 1},
				{ProductID: p3, Quantity: 5},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := MergeLines(tt.input)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}

func TestSortLinesByBytes(t *testing.T) {
	lines := []Line{}
	for range 20 {
		lines = append(lines, Line{ProductID: uuid.New(), Quantity: 1})
	}
	SortLines(lines)
	for i := 1; i < len(lines); i++ {
		assert.Negative(t, bytes.Compare(lines[i-1].ProductID[:], lines[i].ProductID[:]))
	}
}

func TestOrderFilterNormalize(t *testing.T) {
	f := OrderFilter{}.Normalize()
	assert.Equal(t, SortByOrderDate, f.SortBy)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultPageLimit, f.Limit)
	assert.Equal(t, 0, f.Offset())

	f = OrderFilter{SortBy: SortByOrderTotal, Page: 3, Limit: 1000}.Normalize()
	assert.Equal(t, SortByOrderTotal, f.SortBy)
	assert.Equal(t, MaxPageLimit, f.Limit)
	assert.Equal(t, 200, f.Offset())

	f = OrderFilter{SortBy: "drop table"}.Normalize()
	assert.Equal(t, SortByOrderDate, f.SortBy)
}
