package woocommerce

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/cache"
	wcdomain "github.com/niaga-platform/service-wooadmin/internal/domain/woocommerce"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// Provider implements providers.ShopClient for one WooCommerce store.
type Provider struct {
	client         *Client
	orderProvider  *OrderProvider
	reportProvider *ReportProvider
	systemProvider *SystemProvider
	logger         *zap.Logger
}

// ProviderConfig holds configuration for the WooCommerce provider.
type ProviderConfig struct {
	ShopID         string
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	RequestTimeout time.Duration
	RetryPolicy    *wcdomain.RetryPolicy
	RateLimit      *wcdomain.RateLimitConfig
	Cache          *cache.Cache
	CacheTTL       time.Duration
}

// NewProvider creates a new WooCommerce provider.
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := NewClient(&ClientConfig{
		StoreURL:       cfg.StoreURL,
		ConsumerKey:    cfg.ConsumerKey,
		ConsumerSecret: cfg.ConsumerSecret,
		Logger:         logger,
		RetryPolicy:    cfg.RetryPolicy,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create WooCommerce client: %w", err)
	}

	return &Provider{
		client:         client,
		orderProvider:  NewOrderProvider(client, cfg.ShopID, cfg.Cache, cfg.CacheTTL),
		reportProvider: NewReportProvider(client),
		systemProvider: NewSystemProvider(client, logger),
		logger:         logger,
	}, nil
}

// --- Order Methods ---

// GetOrders lists one page of orders.
func (p *Provider) GetOrders(ctx context.Context, filters providers.OrderFilters, page providers.Pagination) (*providers.OrderPage, error) {
	return p.orderProvider.GetOrders(ctx, filters, page)
}

// GetOrder fetches a single order.
func (p *Provider) GetOrder(ctx context.Context, id int64) (*providers.Order, error) {
	return p.orderProvider.GetOrder(ctx, id)
}

// UpdateOrderStatus updates an order's status.
func (p *Provider) UpdateOrderStatus(ctx context.Context, id int64, status providers.OrderStatus) (*providers.Order, error) {
	return p.orderProvider.UpdateOrderStatus(ctx, id, status)
}

// --- Report Methods ---

// GetSalesReport fetches the sales summary for a date range.
func (p *Provider) GetSalesReport(ctx context.Context, r providers.DateRange) (*providers.SalesReport, error) {
	return p.reportProvider.GetSalesReport(ctx, r)
}

// GetTopSellers fetches the top-selling products for a date range.
func (p *Provider) GetTopSellers(ctx context.Context, r providers.DateRange) ([]providers.TopSeller, error) {
	return p.reportProvider.GetTopSellers(ctx, r)
}

// GetOrderTotals fetches all-time order counts per status.
func (p *Provider) GetOrderTotals(ctx context.Context) ([]providers.OrderTotal, error) {
	return p.reportProvider.GetOrderTotals(ctx)
}

// --- Store Methods ---

// GetStoreInfo fetches store metadata.
func (p *Provider) GetStoreInfo(ctx context.Context) (*providers.StoreInfo, error) {
	return p.systemProvider.GetStoreInfo(ctx)
}

// GetPaymentGateways fetches enabled payment gateways.
func (p *Provider) GetPaymentGateways(ctx context.Context) ([]providers.PaymentGateway, error) {
	return p.systemProvider.GetPaymentGateways(ctx)
}

// TestConnection verifies the credentials against the store.
func (p *Provider) TestConnection(ctx context.Context) error {
	return p.systemProvider.TestConnection(ctx)
}

var _ providers.ShopClient = (*Provider)(nil)

// BuilderConfig holds the settings shared by every store client.
type BuilderConfig struct {
	RequestTimeout time.Duration
	RetryAttempts  int
	RateLimitRPS   float64
	RateLimitBurst int
	Cache          *cache.Cache
	CacheTTL       time.Duration
}

// NewBuilder returns a providers.Builder that creates WooCommerce providers.
func NewBuilder(cfg BuilderConfig, logger *zap.Logger) providers.Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(creds providers.ShopCredentials) (providers.ShopClient, error) {
		retry := wcdomain.DefaultRetryPolicy()
		if cfg.RetryAttempts > 0 {
			retry.Attempts = cfg.RetryAttempts
		}

		rateLimit := wcdomain.DefaultRateLimitConfig()
		if cfg.RateLimitRPS > 0 {
			rateLimit.DefaultRPS = cfg.RateLimitRPS
			for prefix, l := range rateLimit.PathLimits {
				if l.RPS > cfg.RateLimitRPS {
					l.RPS = cfg.RateLimitRPS
					rateLimit.PathLimits[prefix] = l
				}
			}
		}
		if cfg.RateLimitBurst > 0 {
			rateLimit.DefaultBurst = cfg.RateLimitBurst
		}

		p, err := NewProvider(&ProviderConfig{
			ShopID:         creds.ID,
			StoreURL:       creds.URL,
			ConsumerKey:    creds.ConsumerKey,
			ConsumerSecret: creds.ConsumerSecret,
			RequestTimeout: cfg.RequestTimeout,
			RetryPolicy:    retry,
			RateLimit:      &rateLimit,
			Cache:          cfg.Cache,
			CacheTTL:       cfg.CacheTTL,
		}, logger.With(zap.String("shop_id", creds.ID)))
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
