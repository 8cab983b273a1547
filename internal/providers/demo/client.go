package demo

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// Client serves one demo store. It applies filters, sorting and pagination
// the way the WooCommerce REST API does.
type Client struct {
	store *store
}

// paidStatuses are the statuses WooCommerce counts as sales.
var paidStatuses = map[providers.OrderStatus]bool{
	providers.StatusCompleted:  true,
	providers.StatusProcessing: true,
	providers.StatusOnHold:     true,
}

// GetOrders lists one page of matching orders.
func (c *Client) GetOrders(ctx context.Context, filters providers.OrderFilters, page providers.Pagination) (*providers.OrderPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page = page.Normalize()

	c.store.mu.Lock()
	matched := make([]providers.Order, 0)
	for _, o := range c.store.orders {
		if matches(o, filters) {
			matched = append(matched, o)
		}
	}
	c.store.mu.Unlock()

	desc := !strings.EqualFold(filters.SortOrder, "asc")
	switch filters.SortBy {
	case providers.SortByID:
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].ID > matched[j].ID
			}
			return matched[i].ID < matched[j].ID
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return matched[i].DateCreated.After(matched[j].DateCreated)
			}
			return matched[i].DateCreated.Before(matched[j].DateCreated)
		})
	}

	total := len(matched)
	totalPages := (total + page.Limit - 1) / page.Limit
	start := (page.Page - 1) * page.Limit
	end := start + page.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	orders := append([]providers.Order(nil), matched[start:end]...)
	if orders == nil {
		orders = []providers.Order{}
	}
	providers.SortLocally(orders, filters)

	return &providers.OrderPage{
		Orders:     orders,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

func matches(o providers.Order, f providers.OrderFilters) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.DateFrom.IsZero() && o.DateCreated.Before(providers.StartOfDay(f.DateFrom)) {
		return false
	}
	if !f.DateTo.IsZero() && o.DateCreated.After(providers.EndOfDay(f.DateTo)) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		haystack := strings.ToLower(strings.Join([]string{
			o.Number, o.Billing.FullName(), o.Billing.Email, o.Billing.Phone,
		}, " "))
		if !strings.Contains(haystack, q) {
			return false
		}
	}
	return true
}

// GetOrder returns the order, or nil when it does not exist.
func (c *Client) GetOrder(ctx context.Context, id int64) (*providers.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, o := range c.store.orders {
		if o.ID == id {
			out := o
			return &out, nil
		}
	}
	return nil, nil
}

// UpdateOrderStatus changes an order's status in place.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status providers.OrderStatus) (*providers.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for i := range c.store.orders {
		if c.store.orders[i].ID == id {
			c.store.orders[i].Status = status
			c.store.orders[i].DateModified = time.Now().UTC().Truncate(time.Second)
			out := c.store.orders[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (c *Client) inRange(r providers.DateRange) []providers.Order {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	var out []providers.Order
	for _, o := range c.store.orders {
		if !r.From.IsZero() && o.DateCreated.Before(providers.StartOfDay(r.From)) {
			continue
		}
		if !r.To.IsZero() && o.DateCreated.After(providers.EndOfDay(r.To)) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// GetSalesReport sums paid orders in the range.
func (c *Client) GetSalesReport(ctx context.Context, r providers.DateRange) (*providers.SalesReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report := &providers.SalesReport{}
	for _, o := range c.inRange(r) {
		if !paidStatuses[o.Status] {
			continue
		}
		report.TotalSales += providers.ParseDecimal(o.Total)
		report.TotalTax += providers.ParseDecimal(o.TaxTotal)
		report.TotalShipping += providers.ParseDecimal(o.ShippingTotal)
		report.TotalDiscount += providers.ParseDecimal(o.DiscountTotal)
		report.TotalOrders++
		for _, li := range o.LineItems {
			report.TotalItems += int64(li.Quantity)
		}
	}
	report.NetSales = report.TotalSales - report.TotalTax - report.TotalShipping
	report.AverageSales = providers.AverageOrderValue(report.TotalSales, report.TotalOrders)
	return report, nil
}

// GetTopSellers ranks products by quantity sold in the range.
func (c *Client) GetTopSellers(ctx context.Context, r providers.DateRange) ([]providers.TopSeller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byProduct := make(map[int64]*providers.TopSeller)
	for _, o := range c.inRange(r) {
		if !paidStatuses[o.Status] {
			continue
		}
		for _, li := range o.LineItems {
			ts, ok := byProduct[li.ProductID]
			if !ok {
				ts = &providers.TopSeller{ProductID: li.ProductID, Name: li.Name}
				byProduct[li.ProductID] = ts
			}
			ts.Quantity += int64(li.Quantity)
		}
	}

	out := make([]providers.TopSeller, 0, len(byProduct))
	for _, ts := range byProduct {
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out, nil
}

// GetOrderTotals counts all orders per status.
func (c *Client) GetOrderTotals(ctx context.Context) ([]providers.OrderTotal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counts := make(map[providers.OrderStatus]int64)
	for _, o := range c.inRange(providers.DateRange{}) {
		counts[o.Status]++
	}

	out := make([]providers.OrderTotal, 0, len(providers.AllStatuses))
	for _, s := range providers.AllStatuses {
		out = append(out, providers.OrderTotal{Status: s, Name: statusName(s), Total: counts[s]})
	}
	return out, nil
}

func statusName(s providers.OrderStatus) string {
	name := strings.ReplaceAll(string(s), "-", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// GetStoreInfo returns the generated store metadata.
func (c *Client) GetStoreInfo(ctx context.Context) (*providers.StoreInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shop := c.store.shop
	symbol := shop.Currency
	if shop.Currency == "MYR" {
		symbol = "RM"
	}
	return &providers.StoreInfo{
		StoreName:      shop.Name,
		SiteURL:        shop.URL,
		Address:        shop.Address,
		Email:          shop.Email,
		Currency:       shop.Currency,
		CurrencySymbol: symbol,
		Version:        "demo",
	}, nil
}

// GetPaymentGateways returns the fixed demo gateways.
func (c *Client) GetPaymentGateways(ctx context.Context) ([]providers.PaymentGateway, error) {
	return append([]providers.PaymentGateway(nil), demoGateways...), nil
}

// TestConnection always succeeds.
func (c *Client) TestConnection(ctx context.Context) error {
	return ctx.Err()
}

var _ providers.ShopClient = (*Client)(nil)
