package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

var errShopDown = errors.New("shop down")

type fakeShop struct {
	mu        sync.Mutex
	orders    []providers.Order
	err       error
	report    *providers.SalesReport
	reportErr error
	testErr   error
	sellers   []providers.TopSeller
	totals    []providers.OrderTotal
	queries   []providers.OrderFilters
	fresh     []bool

	// ignoreDates returns every order whatever the requested window.
	ignoreDates bool
}

func (f *fakeShop) setOrders(orders ...providers.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = orders
}

func (f *fakeShop) recorded() []providers.OrderFilters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.OrderFilters(nil), f.queries...)
}

func (f *fakeShop) GetOrders(ctx context.Context, filters providers.OrderFilters, page providers.Pagination) (*providers.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, filters)
	f.fresh = append(f.fresh, providers.FreshData(ctx))
	if f.err != nil {
		return nil, f.err
	}

	var matched []providers.Order
	for _, o := range f.orders {
		if f.ignoreDates {
			matched = append(matched, o)
			continue
		}
		if !filters.DateFrom.IsZero() && o.DateCreated.Before(filters.DateFrom) {
			continue
		}
		if !filters.DateTo.IsZero() && o.DateCreated.After(filters.DateTo) {
			continue
		}
		if len(filters.Statuses) > 0 && !hasStatus(filters.Statuses, o.Status) {
			continue
		}
		matched = append(matched, o)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].DateCreated.After(matched[j].DateCreated) })

	page = page.Normalize()
	total := len(matched)
	if len(matched) > page.Limit {
		matched = matched[:page.Limit]
	}
	return &providers.OrderPage{Orders: matched, Total: total, TotalPages: (total + page.Limit - 1) / page.Limit}, nil
}

func (f *fakeShop) freshCalls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.fresh...)
}

func hasStatus(list []providers.OrderStatus, s providers.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (f *fakeShop) GetOrder(ctx context.Context, id int64) (*providers.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeShop) UpdateOrderStatus(ctx context.Context, id int64, status providers.OrderStatus) (*providers.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
			o := f.orders[i]
			return &o, nil
		}
	}
	return nil, nil
}

func (f *fakeShop) GetSalesReport(ctx context.Context, r providers.DateRange) (*providers.SalesReport, error) {
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return f.report, nil
}

func (f *fakeShop) GetTopSellers(ctx context.Context, r providers.DateRange) ([]providers.TopSeller, error) {
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return f.sellers, nil
}

func (f *fakeShop) GetOrderTotals(ctx context.Context) ([]providers.OrderTotal, error) {
	return f.totals, nil
}

func (f *fakeShop) GetStoreInfo(ctx context.Context) (*providers.StoreInfo, error) {
	return &providers.StoreInfo{StoreName: "Fetched Store", Currency: "MYR", Email: "shop@example.test"}, nil
}

func (f *fakeShop) GetPaymentGateways(ctx context.Context) ([]providers.PaymentGateway, error) {
	return nil, nil
}

func (f *fakeShop) TestConnection(ctx context.Context) error {
	return f.testErr
}

// staticResolver serves fixed targets for every owner.
type staticResolver struct {
	targets []ShopTarget
}

func (r *staticResolver) ActiveTargets(ctx context.Context, ownerID string, shopIDs []string) ([]ShopTarget, error) {
	if len(r.targets) == 0 {
		return nil, ErrNoActiveShops
	}
	if len(shopIDs) == 0 {
		return r.targets, nil
	}
	var out []ShopTarget
	for _, t := range r.targets {
		for _, id := range shopIDs {
			if t.ShopID == id {
				out = append(out, t)
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoActiveShops
	}
	return out, nil
}

func (r *staticResolver) AllActiveTargets(ctx context.Context) ([]ShopTarget, error) {
	return r.targets, nil
}

func (r *staticResolver) ShopIDs(ctx context.Context, ownerID string) ([]string, error) {
	var ids []string
	for _, t := range r.targets {
		if t.OwnerID == ownerID {
			ids = append(ids, t.ShopID)
		}
	}
	return ids, nil
}

func target(id string, client providers.ShopClient) ShopTarget {
	return ShopTarget{ShopID: id, OwnerID: "op-1", Name: "Shop " + id, Currency: "MYR", Client: client}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func order(id int64, created time.Time, status providers.OrderStatus, total string) providers.Order {
	return providers.Order{ID: id, Status: status, Total: total, DateCreated: created}
}
