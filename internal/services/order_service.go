package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niaga-platform/service-wooadmin/internal/events"
	"github.com/niaga-platform/service-wooadmin/internal/models"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid order status")
)

// StatusEventPublisher publishes order status changes.
type StatusEventPublisher interface {
	PublishOrderStatusUpdated(ctx context.Context, event events.OrderStatusUpdatedEvent) error
}

// OrderService handles per-shop order browsing and status changes.
type OrderService struct {
	shops     *ShopService
	publisher StatusEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service. publisher may be nil.
func NewOrderService(shops *ShopService, publisher StatusEventPublisher, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{shops: shops, publisher: publisher, logger: logger}
}

// ListOrders returns one page of a shop's orders.
func (s *OrderService) ListOrders(ctx context.Context, ownerID string, shopID uuid.UUID, filters providers.OrderFilters, page providers.Pagination) (*providers.OrderPage, error) {
	for _, st := range filters.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, st)
		}
	}
	_, client, err := s.shops.Client(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	return client.GetOrders(ctx, filters, page.Normalize())
}

// GetOrder returns one order with the shop it belongs to.
func (s *OrderService) GetOrder(ctx context.Context, ownerID string, shopID uuid.UUID, orderID int64) (*models.Shop, *providers.Order, error) {
	shop, client, err := s.shops.Client(ctx, ownerID, shopID)
	if err != nil {
		return nil, nil, err
	}
	order, err := client.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	return shop, order, nil
}

// PaymentGateways lists the shop's enabled payment gateways.
func (s *OrderService) PaymentGateways(ctx context.Context, ownerID string, shopID uuid.UUID) ([]providers.PaymentGateway, error) {
	_, client, err := s.shops.Client(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}
	return client.GetPaymentGateways(ctx)
}

// UpdateStatus changes an order's status and returns the refreshed order.
// On failure nothing is published and the error is returned unchanged.
func (s *OrderService) UpdateStatus(ctx context.Context, ownerID string, shopID uuid.UUID, orderID int64, status providers.OrderStatus) (*providers.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	_, client, err := s.shops.Client(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}

	order, err := client.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		s.logger.Error("failed to update order status",
			zap.String("shop_id", shopID.String()),
			zap.Int64("order_id", orderID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if s.publisher != nil {
		event := events.OrderStatusUpdatedEvent{
			OwnerID:   ownerID,
			ShopID:    shopID.String(),
			OrderID:   orderID,
			Status:    string(order.Status),
			UpdatedAt: time.Now(),
		}
		if err := s.publisher.PublishOrderStatusUpdated(ctx, event); err != nil {
			s.logger.Warn("failed to publish status update", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
	return order, nil
}

// ShopReport holds a shop's best sellers for a date range together with its
// all-time order counts per status.
type ShopReport struct {
	ShopID      string                 `json:"shop_id"`
	Range       providers.DateRange    `json:"range"`
	TopSellers  []providers.TopSeller  `json:"top_sellers"`
	OrderTotals []providers.OrderTotal `json:"order_totals"`
}

// Report fetches the shop's top sellers and order totals concurrently.
func (s *OrderService) Report(ctx context.Context, ownerID string, shopID uuid.UUID, r providers.DateRange) (*ShopReport, error) {
	_, client, err := s.shops.Client(ctx, ownerID, shopID)
	if err != nil {
		return nil, err
	}

	report := &ShopReport{ShopID: shopID.String(), Range: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sellers, err := client.GetTopSellers(gctx, r)
		if err != nil {
			return fmt.Errorf("failed to get top sellers: %w", err)
		}
		report.TopSellers = sellers
		return nil
	})
	g.Go(func() error {
		totals, err := client.GetOrderTotals(gctx)
		if err != nil {
			return fmt.Errorf("failed to get order totals: %w", err)
		}
		report.OrderTotals = totals
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("shop report failed", zap.String("shop_id", shopID.String()), zap.Error(err))
		return nil, err
	}

	if report.TopSellers == nil {
		report.TopSellers = []providers.TopSeller{}
	}
	if report.OrderTotals == nil {
		report.OrderTotals = []providers.OrderTotal{}
	}
	return report, nil
}
