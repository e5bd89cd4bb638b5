package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alturino/checkout/internal/money"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name            string
		tallies         []StatusTally
		expectedOrders  int64
		expectedRevenue string
		expectedAverage string
		expectedCounts  map[OrderStatus]int64
	}{
		{
			name:            "given no orders should return zeros for every status",
			expectedRevenue: "0.00",
			expectedAverage: "0.00",
			expectedCounts: map[OrderStatus]int64{
				OrderStatusPending:    0,
				OrderStatusProcessing: 0,
				OrderStatusShipped:    0,
				OrderStatusDelivered:  0,
				OrderStatusCancelled:  0,
				OrderStatusRefunded:   0,
			},
		},
		{
			name: "given three pending orders of 10, 20 and 30 should average 20",
			tallies: []StatusTally{
				{Status: OrderStatusPending, Count: 3, Revenue: money.MustFromString("60.00")},
			},
			expectedOrders:  3,
			expectedRevenue: "60.00",
			expectedAverage: "20.00",
			expectedCounts: map[OrderStatus]int64{
				OrderStatusPending:    3,
				OrderStatusProcessing: 0,
				OrderStatusShipped:    0,
				OrderStatusDelivered:  0,
				OrderStatusCancelled:  0,
				OrderStatusRefunded:   0,
			},
		},
		{
			name: "given mixed statuses should add revenue across all of them",
			tallies: []StatusTally{
				{Status: OrderStatusDelivered, Count: 2, Revenue: money.MustFromString("15.50")},
				{Status: OrderStatusCancelled, Count: 1, Revenue: money.MustFromString("4.50")},
			},
			expectedOrders:  3,
			expectedRevenue: "20.00",
			expectedAverage: "6.67",
			expectedCounts: map[OrderStatus]int64{
				OrderStatusPending:    0,
				OrderStatusProcessing: 0,
				OrderStatusShipped:    0,
				OrderStatusDelivered:  2,
				OrderStatusCancelled:  1,
				OrderStatusRefunded:   0,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := Summarize(tt.tallies)
			assert.Equal(t, tt.expectedOrders, actual.TotalOrders)
			assert.Equal(t, tt.expectedRevenue, actual.TotalRevenue.String())
			assert.Equal(t, tt.expectedAverage, actual.AverageOrderValue.String())
			assert.Equal(t, tt.expectedCounts, actual.OrdersByStatus)
		})
	}
}
