package domain

import "github.com/Alturino/checkout/internal/money"

type OrderSummary struct {
	TotalOrders       int64                 `json:"total_orders"`
	TotalRevenue      money.Money           `json:"total_revenue"`
	AverageOrderValue money.Money           `json:"average_order_value"`
	OrdersByStatus    map[OrderStatus]int64 `json:"orders_by_status"`
}

// StatusTally is the count and revenue of orders sharing one status.
type StatusTally struct {
	Status  OrderStatus
	Count   int64
	Revenue money.Money
}

func Summarize(tallies []StatusTally) OrderSummary {
	summary := OrderSummary{
		TotalRevenue:   money.Zero(),
		OrdersByStatus: make(map[OrderStatus]int64, len(OrderStatuses)),
	}
	for _, status := range OrderStatuses {
		summary.OrdersByStatus[status] = 0
	}
	for _, tally := range tallies {
		summary.TotalOrders += tally.Count
		summary.TotalRevenue = summary.TotalRevenue.Add(tally.Revenue)
		summary.OrdersByStatus[tally.Status] += tally.Count
	}
	summary.AverageOrderValue = summary.TotalRevenue.Average(summary.TotalOrders)
	return summary
}
