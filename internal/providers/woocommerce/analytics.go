package woocommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

const (
	SalesReportPath  = "/reports/sales"
	TopSellersPath   = "/reports/top_sellers"
	OrderTotalsPath  = "/reports/orders/totals"
	reportDateLayout = "2006-01-02"
)

// ReportProvider implements the legacy WooCommerce report endpoints.
type ReportProvider struct {
	client *Client
}

// NewReportProvider creates a new report provider.
func NewReportProvider(client *Client) *ReportProvider {
	return &ReportProvider{client: client}
}

func reportRangeQuery(r providers.DateRange) url.Values {
	q := url.Values{}
	if !r.From.IsZero() {
		q.Set("date_min", r.From.Format(reportDateLayout))
	}
	if !r.To.IsZero() {
		q.Set("date_max", r.To.Format(reportDateLayout))
	}
	return q
}

type wcSalesReport struct {
	TotalSales    flexFloat `json:"total_sales"`
	NetSales      flexFloat `json:"net_sales"`
	AverageSales  flexFloat `json:"average_sales"`
	TotalOrders   flexFloat `json:"total_orders"`
	TotalItems    flexFloat `json:"total_items"`
	TotalTax      flexFloat `json:"total_tax"`
	TotalShipping flexFloat `json:"total_shipping"`
	TotalRefunds  flexFloat `json:"total_refunds"`
	TotalDiscount flexFloat `json:"total_discount"`
}

// GetSalesReport fetches the store's sales summary for a date range.
func (p *ReportProvider) GetSalesReport(ctx context.Context, r providers.DateRange) (*providers.SalesReport, error) {
	var raw []wcSalesReport
	if _, err := p.client.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   SalesReportPath,
		Query:  reportRangeQuery(r),
	}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get sales report: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("failed to get sales report: empty response")
	}

	s := raw[0]
	return &providers.SalesReport{
		TotalSales:    float64(s.TotalSales),
		NetSales:      float64(s.NetSales),
		AverageSales:  float64(s.AverageSales),
		TotalOrders:   int64(s.TotalOrders),
		TotalItems:    int64(s.TotalItems),
		TotalTax:      float64(s.TotalTax),
		TotalShipping: float64(s.TotalShipping),
		TotalRefunds:  float64(s.TotalRefunds),
		TotalDiscount: float64(s.TotalDiscount),
	}, nil
}

// GetTopSellers fetches the best-selling products for a date range.
func (p *ReportProvider) GetTopSellers(ctx context.Context, r providers.DateRange) ([]providers.TopSeller, error) {
	var raw []struct {
		Name      string    `json:"name"`
		ProductID int64     `json:"product_id"`
		Quantity  flexFloat `json:"quantity"`
	}
	q := reportRangeQuery(r)
	q.Set("period", "custom")
	if _, err := p.client.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   TopSellersPath,
		Query:  q,
	}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get top sellers: %w", err)
	}

	out := make([]providers.TopSeller, 0, len(raw))
	for _, t := range raw {
		out = append(out, providers.TopSeller{
			ProductID: t.ProductID,
			Name:      t.Name,
			Quantity:  int64(t.Quantity),
		})
	}
	return out, nil
}

// GetOrderTotals fetches the all-time order count per status.
func (p *ReportProvider) GetOrderTotals(ctx context.Context) ([]providers.OrderTotal, error) {
	var raw []struct {
		Slug  string    `json:"slug"`
		Name  string    `json:"name"`
		Total flexFloat `json:"total"`
	}
	if _, err := p.client.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   OrderTotalsPath,
	}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get order totals: %w", err)
	}

	out := make([]providers.OrderTotal, 0, len(raw))
	for _, t := range raw {
		out = append(out, providers.OrderTotal{
			Status: providers.OrderStatus(t.Slug),
			Name:   t.Name,
			Total:  int64(t.Total),
		})
	}
	return out, nil
}
