package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niaga-platform/service-wooadmin/internal/metrics"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// DefaultShopConcurrency bounds concurrent per-shop fetches.
const DefaultShopConcurrency = 8

// revenueFallbackPageSize is the page summed when a shop has no sales report.
const revenueFallbackPageSize = 100

var countedStatuses = []providers.OrderStatus{
	providers.StatusCompleted,
	providers.StatusPending,
	providers.StatusProcessing,
	providers.StatusFailed,
}

var revenueStatuses = []providers.OrderStatus{
	providers.StatusCompleted,
	providers.StatusProcessing,
}

// StatsRequest selects the shops and date range to aggregate.
type StatsRequest struct {
	OwnerID string
	ShopIDs []string
	Range   providers.DateRange
	Refresh bool
}

// StatsUpdateFunc receives each shop's result as soon as it resolves, with
// the aggregate over every shop resolved so far. Calls are serialized.
type StatsUpdateFunc func(shop providers.ShopStats, aggregate providers.StoreStats)

// StatsAggregator computes per-shop and cross-store statistics.
type StatsAggregator struct {
	resolver    ShopResolver
	cache       StatsCache
	concurrency int
	logger      *zap.Logger
}

// NewStatsAggregator creates a new statistics aggregator. cache may be nil.
func NewStatsAggregator(resolver ShopResolver, cache StatsCache, logger *zap.Logger) *StatsAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsAggregator{
		resolver:    resolver,
		cache:       cache,
		concurrency: DefaultShopConcurrency,
		logger:      logger,
	}
}

// NormalizeRange widens r to whole days. A zero To means today and a zero
// From means 30 days before To.
func NormalizeRange(r providers.DateRange, now time.Time) providers.DateRange {
	if r.To.IsZero() {
		r.To = now
	}
	if r.From.IsZero() {
		r.From = r.To.AddDate(0, 0, -29)
	}
	if r.From.After(r.To) {
		r.From, r.To = r.To, r.From
	}
	return providers.DateRange{From: providers.StartOfDay(r.From), To: providers.EndOfDay(r.To)}
}

// Compute fetches every selected shop concurrently. Only a failure to
// resolve the shops is returned; failing shops become all-zero records.
func (a *StatsAggregator) Compute(ctx context.Context, req StatsRequest, onUpdate StatsUpdateFunc) (providers.StoreStats, error) {
	targets, err := a.resolver.ActiveTargets(ctx, req.OwnerID, req.ShopIDs)
	if err != nil {
		return providers.StoreStats{}, err
	}
	r := NormalizeRange(req.Range, time.Now())

	var (
		mu      sync.Mutex
		results = make(map[string]providers.ShopStats, len(targets))
	)
	publish := func(s providers.ShopStats) {
		mu.Lock()
		defer mu.Unlock()
		results[s.ShopID] = s
		if onUpdate != nil {
			onUpdate(s, providers.Aggregate(results))
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(a.concurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			publish(a.shopStats(ctx, t, r, req.Refresh))
			return nil
		})
	}
	_ = g.Wait()

	mu.Lock()
	defer mu.Unlock()
	return providers.Aggregate(results), nil
}

func (a *StatsAggregator) shopStats(ctx context.Context, t ShopTarget, r providers.DateRange, refresh bool) providers.ShopStats {
	if refresh {
		ctx = providers.WithFreshData(ctx)
	} else if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, t.ShopID, r); ok {
			return *cached
		}
	}

	stats, err := a.fetchShopStats(ctx, t, r)
	if err != nil {
		a.logger.Warn("shop stats degraded to zero",
			zap.String("shop_id", t.ShopID),
			zap.Error(err),
		)
		metrics.ShopFetchFailures.WithLabelValues("stats").Inc()
		return providers.ShopStats{
			ShopID:   t.ShopID,
			ShopName: t.Name,
			Currency: t.Currency,
			Failed:   true,
			Error:    err.Error(),
		}
	}

	if a.cache != nil {
		if err := a.cache.Set(ctx, t.ShopID, r, stats); err != nil {
			a.logger.Debug("stats not cached", zap.String("shop_id", t.ShopID), zap.Error(err))
		}
	}
	return stats
}

func (a *StatsAggregator) fetchShopStats(ctx context.Context, t ShopTarget, r providers.DateRange) (providers.ShopStats, error) {
	inRange := providers.OrderFilters{DateFrom: r.From, DateTo: r.To}
	minimal := providers.Pagination{Page: 1, Limit: 1}

	var (
		total   int64
		revenue float64
		counts  = make([]int64, len(countedStatuses))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := t.Client.GetOrders(gctx, inRange, minimal)
		if err != nil {
			return err
		}
		total = int64(page.Total)
		return nil
	})
	g.Go(func() error {
		report, err := t.Client.GetSalesReport(gctx, r)
		if err == nil && report != nil {
			revenue = report.TotalSales
			return nil
		}
		if err != nil {
			a.logger.Debug("sales report unavailable, summing orders",
				zap.String("shop_id", t.ShopID),
				zap.Error(err),
			)
		}
		revenue, err = sumRevenue(gctx, t.Client, r)
		return err
	})
	for i, status := range countedStatuses {
		i, status := i, status
		g.Go(func() error {
			f := inRange
			f.Statuses = []providers.OrderStatus{status}
			page, err := t.Client.GetOrders(gctx, f, minimal)
			if err != nil {
				return err
			}
			counts[i] = int64(page.Total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return providers.ShopStats{}, err
	}

	return providers.ShopStats{
		ShopID:       t.ShopID,
		ShopName:     t.Name,
		Currency:     t.Currency,
		TotalRevenue: revenue,
		TotalOrders:  total,
		StatusCounts: providers.StatusCounts{
			Completed:  counts[0],
			Pending:    counts[1],
			Processing: counts[2],
			Failed:     counts[3],
		},
		AverageOrderValue: providers.AverageOrderValue(revenue, total),
	}, nil
}

func sumRevenue(ctx context.Context, client providers.ShopClient, r providers.DateRange) (float64, error) {
	page, err := client.GetOrders(ctx, providers.OrderFilters{
		Statuses: revenueStatuses,
		DateFrom: r.From,
		DateTo:   r.To,
	}, providers.Pagination{Page: 1, Limit: revenueFallbackPageSize})
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, o := range page.Orders {
		sum += providers.ParseDecimal(o.Total)
	}
	return sum, nil
}
