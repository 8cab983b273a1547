package providers

import (
	"context"
	"time"
)

// OrderStatus is the lifecycle status of a WooCommerce order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusOnHold     OrderStatus = "on-hold"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
	StatusRefunded   OrderStatus = "refunded"
	StatusFailed     OrderStatus = "failed"
)

// AllStatuses lists every status in display order.
var AllStatuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusOnHold,
	StatusCompleted,
	StatusCancelled,
	StatusRefunded,
	StatusFailed,
}

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Address is a billing or shipping address. Shipping addresses carry no
// email or phone.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// FullName joins first and last name.
func (a Address) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// MetaData is a key/value pair attached to an order or line item.
type MetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// LineItem is one product line of an order. Money fields are decimal strings.
type LineItem struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	ProductID int64      `json:"product_id"`
	Quantity  int        `json:"quantity"`
	Price     string     `json:"price"`
	Subtotal  string     `json:"subtotal"`
	Total     string     `json:"total"`
	SKU       string     `json:"sku"`
	MetaData  []MetaData `json:"meta_data"`
}

// Order is the normalized order record shared by every data source.
type Order struct {
	ID                 int64       `json:"id"`
	ShopID             string      `json:"shop_id"`
	Number             string      `json:"number"`
	Status             OrderStatus `json:"status"`
	Currency           string      `json:"currency"`
	Subtotal           string      `json:"subtotal"`
	ShippingTotal      string      `json:"shipping_total"`
	TaxTotal           string      `json:"tax_total"`
	DiscountTotal      string      `json:"discount_total"`
	Total              string      `json:"total"`
	DateCreated        time.Time   `json:"date_created"`
	DateModified       time.Time   `json:"date_modified"`
	Billing            Address     `json:"billing"`
	Shipping           Address     `json:"shipping"`
	LineItems          []LineItem  `json:"line_items"`
	PaymentMethod      string      `json:"payment_method"`
	PaymentMethodTitle string      `json:"payment_method_title"`
	CustomerNote       string      `json:"customer_note"`
}

// Sort fields accepted in OrderFilters.SortBy.
const (
	SortByDate     = "date"
	SortByID       = "id"
	SortByCustomer = "customer"
	SortByTotal    = "total"
)

// OrderFilters narrows an order listing. Zero values mean "no filter".
type OrderFilters struct {
	Statuses  []OrderStatus `json:"statuses,omitempty"`
	DateFrom  time.Time     `json:"date_from,omitempty"`
	DateTo    time.Time     `json:"date_to,omitempty"`
	Search    string        `json:"search,omitempty"`
	SortBy    string        `json:"sort_by,omitempty"`
	SortOrder string        `json:"sort_order,omitempty"`
}

// Pagination is a 1-indexed page request.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize clamps the page to 1 and the limit to [1, 100].
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// OrderPage is one page of orders with the store's totals.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
}

// DateRange is an inclusive calendar-day range.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last second of t's day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

// StoreInfo is the store metadata reported by the system status and
// settings endpoints.
type StoreInfo struct {
	StoreName      string `json:"store_name"`
	SiteURL        string `json:"site_url"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Currency       string `json:"currency"`
	CurrencySymbol string `json:"currency_symbol"`
	Version        string `json:"version"`
}

// PaymentGateway is an enabled payment method.
type PaymentGateway struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Enabled bool   `json:"enabled"`
}

// ShopClient is the per-shop data source. Implementations exist for the
// WooCommerce REST API and for the in-memory demo dataset.
type ShopClient interface {
	// GetOrders lists one page of orders matching filters.
	GetOrders(ctx context.Context, filters OrderFilters, page Pagination) (*OrderPage, error)
	// GetOrder returns nil without error when the order does not exist.
	GetOrder(ctx context.Context, id int64) (*Order, error)
	// UpdateOrderStatus returns the refreshed order, or nil when the order
	// does not exist.
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) (*Order, error)
	// GetSalesReport is best-effort; callers fall back to summing orders.
	GetSalesReport(ctx context.Context, r DateRange) (*SalesReport, error)
	GetTopSellers(ctx context.Context, r DateRange) ([]TopSeller, error)
	GetOrderTotals(ctx context.Context) ([]OrderTotal, error)
	GetStoreInfo(ctx context.Context) (*StoreInfo, error)
	GetPaymentGateways(ctx context.Context) ([]PaymentGateway, error)
	// TestConnection returns nil iff an authenticated status call succeeds.
	TestConnection(ctx context.Context) error
}
