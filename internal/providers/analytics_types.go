package providers

import "sort"

// SalesReport is the store-computed revenue summary for a date range.
type SalesReport struct {
	TotalSales    float64 `json:"total_sales"`
	NetSales      float64 `json:"net_sales"`
	AverageSales  float64 `json:"average_sales"`
	TotalOrders   int64   `json:"total_orders"`
	TotalItems    int64   `json:"total_items"`
	TotalTax      float64 `json:"total_tax"`
	TotalShipping float64 `json:"total_shipping"`
	TotalRefunds  float64 `json:"total_refunds"`
	TotalDiscount float64 `json:"total_discount"`
}

// TopSeller is a best-selling product in a date range.
type TopSeller struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
}

// OrderTotal is the all-time number of orders in one status.
type OrderTotal struct {
	Status OrderStatus `json:"status"`
	Name   string      `json:"name"`
	Total  int64       `json:"total"`
}

// StatusCounts holds the per-status order counts the dashboard shows.
type StatusCounts struct {
	Completed  int64 `json:"completed"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Failed     int64 `json:"failed"`
}

// Add sums two count sets.
func (s StatusCounts) Add(o StatusCounts) StatusCounts {
	return StatusCounts{
		Completed:  s.Completed + o.Completed,
		Pending:    s.Pending + o.Pending,
		Processing: s.Processing + o.Processing,
		Failed:     s.Failed + o.Failed,
	}
}

// ShopStats is one shop's statistics for a date range. A shop whose fetch
// failed is reported as all zero with Failed set.
type ShopStats struct {
	ShopID            string       `json:"shop_id"`
	ShopName          string       `json:"shop_name"`
	Currency          string       `json:"currency"`
	TotalRevenue      float64      `json:"total_revenue"`
	TotalOrders       int64        `json:"total_orders"`
	StatusCounts      StatusCounts `json:"status_counts"`
	AverageOrderValue float64      `json:"average_order_value"`
	Failed            bool         `json:"failed"`
	Error             string       `json:"error,omitempty"`
}

// StoreStats is the cross-store aggregate.
type StoreStats struct {
	TotalRevenue      float64              `json:"total_revenue"`
	TotalOrders       int64                `json:"total_orders"`
	StatusCounts      StatusCounts         `json:"status_counts"`
	AverageOrderValue float64              `json:"average_order_value"`
	Shops             map[string]ShopStats `json:"shops"`
}

// AverageOrderValue returns revenue / orders, or 0 when there are no orders.
func AverageOrderValue(revenue float64, orders int64) float64 {
	if orders == 0 {
		return 0
	}
	return revenue / float64(orders)
}

// Aggregate folds per-shop stats into a cross-store total. Shops are summed
// in id order so the float total is the same on every call.
func Aggregate(shops map[string]ShopStats) StoreStats {
	ids := make([]string, 0, len(shops))
	for id := range shops {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := StoreStats{Shops: make(map[string]ShopStats, len(shops))}
	for _, id := range ids {
		s := shops[id]
		out.Shops[id] = s
		out.TotalRevenue += s.TotalRevenue
		out.TotalOrders += s.TotalOrders
		out.StatusCounts = out.StatusCounts.Add(s.StatusCounts)
	}
	out.AverageOrderValue = AverageOrderValue(out.TotalRevenue, out.TotalOrders)
	return out
}
