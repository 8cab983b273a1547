package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niaga-platform/service-wooadmin/internal/events"
	"github.com/niaga-platform/service-wooadmin/internal/metrics"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// DefaultNotificationSettings are used until an operator saves their own.
var DefaultNotificationSettings = NotificationSettings{
	Enabled:     true,
	Interval:    15 * time.Second,
	Sound:       true,
	ShowDetails: true,
	RecentLimit: 10,
}

// PollerConfig holds the collaborators of the notification poller.
type PollerConfig struct {
	Resolver  ShopResolver
	Seen      SeenStore
	Settings  SettingsStore
	Notifiers []Notifier
	Defaults  NotificationSettings
	Logger    *zap.Logger
}

// NotificationPoller detects new orders on every active shop at a fixed
// interval. The first cycle after (re)initialization only records what it
// sees.
type NotificationPoller struct {
	resolver  ShopResolver
	seen      SeenStore
	store     SettingsStore
	notifiers []Notifier
	defaults  NotificationSettings
	logger    *zap.Logger
	now       func() time.Time

	// Lifecycle management
	stopChan  chan struct{}
	resetChan chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
	settings  NotificationSettings
	seeded    bool

	pollMu sync.Mutex
}

// NewNotificationPoller creates a new notification poller.
func NewNotificationPoller(cfg PollerConfig) *NotificationPoller {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := cfg.Defaults.Normalize(DefaultNotificationSettings)
	store := cfg.Settings
	if store == nil {
		store = &MemorySettingsStore{}
	}
	seen := cfg.Seen
	if seen == nil {
		seen = NewMemorySeenStore()
	}
	return &NotificationPoller{
		resolver:  cfg.Resolver,
		seen:      seen,
		store:     store,
		notifiers: cfg.Notifiers,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
		settings:  defaults,
		resetChan: make(chan struct{}, 1),
	}
}

// Start loads saved settings and begins polling.
func (p *NotificationPoller) Start(ctx context.Context) error {
	saved, ok, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn("failed to load notification settings, using defaults", zap.Error(err))
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("notification poller already running")
	}
	if ok {
		p.settings = saved.Normalize(p.defaults)
	}
	p.running = true
	p.seeded = false
	p.stopChan = make(chan struct{})
	interval := p.settings.Interval
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx, interval)

	p.logger.Info("notification poller started", zap.Duration("interval", interval))
	return nil
}

// Stop gracefully stops the poller.
func (p *NotificationPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopChan)
	p.wg.Wait()

	p.logger.Info("notification poller stopped")
}

// run is the main background loop.
func (p *NotificationPoller) run(ctx context.Context, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopChan:
			return
		case <-p.resetChan:
			ticker.Reset(p.Settings().Interval)
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *NotificationPoller) tick(ctx context.Context) {
	if !p.Settings().Enabled {
		return
	}
	if _, err := p.PollOnce(ctx); err != nil {
		p.logger.Error("notification poll failed", zap.Error(err))
	}
}

// Settings returns the active settings.
func (p *NotificationPoller) Settings() NotificationSettings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// UpdateSettings saves s and restarts the ticker with its interval.
func (p *NotificationPoller) UpdateSettings(ctx context.Context, s NotificationSettings) (NotificationSettings, error) {
	s = s.Normalize(p.defaults)
	if err := p.store.Save(ctx, s); err != nil {
		return NotificationSettings{}, fmt.Errorf("failed to save notification settings: %w", err)
	}

	p.mu.Lock()
	p.settings = s
	p.mu.Unlock()

	select {
	case p.resetChan <- struct{}{}:
	default:
	}
	return s, nil
}

// ResetSeen forgets the seen orders of one of the owner's shops, or of all of
// them when shopID is empty. A shop without a seen set is re-seeded silently
// on the next cycle. Shops of other owners are never touched; naming one
// returns ErrShopNotFound.
func (p *NotificationPoller) ResetSeen(ctx context.Context, ownerID, shopID string) error {
	owned, err := p.resolver.ShopIDs(ctx, ownerID)
	if err != nil {
		return err
	}
	if shopID == "" {
		return p.seen.Clear(ctx, owned...)
	}
	for _, id := range owned {
		if id == shopID {
			return p.seen.Clear(ctx, shopID)
		}
	}
	return ErrShopNotFound
}

type pollResult struct {
	target ShopTarget
	orders []providers.Order
}

// PollOnce runs one polling cycle and returns the new orders it reported.
func (p *NotificationPoller) PollOnce(ctx context.Context) ([]events.NewOrderEvent, error) {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()

	targets, err := p.resolver.AllActiveTargets(ctx)
	if err != nil {
		return nil, err
	}
	settings := p.Settings()
	results := p.fetchRecent(ctx, targets, settings.RecentLimit)

	p.mu.Lock()
	seeding := !p.seeded
	p.seeded = true
	p.mu.Unlock()

	var found []events.NewOrderEvent
	for _, r := range results {
		ids := make([]int64, 0, len(r.orders))
		for _, o := range r.orders {
			ids = append(ids, o.ID)
		}

		prev, ok, err := p.seen.Load(ctx, r.target.ShopID)
		if err != nil {
			p.logger.Warn("failed to load seen orders", zap.String("shop_id", r.target.ShopID), zap.Error(err))
			continue
		}
		if !seeding && ok {
			seen := make(map[int64]bool, len(prev))
			for _, id := range prev {
				seen[id] = true
			}
			for _, o := range r.orders {
				if !seen[o.ID] {
					found = append(found, newOrderEvent(r.target, o, settings.ShowDetails))
				}
			}
		}

		if err := p.seen.Save(ctx, r.target.ShopID, ids); err != nil {
			p.logger.Warn("failed to save seen orders", zap.String("shop_id", r.target.ShopID), zap.Error(err))
		}
	}

	if len(found) == 0 {
		return nil, nil
	}

	batch := events.NewOrdersBatch{
		Events:     found,
		Sound:      settings.Sound,
		DetectedAt: p.now(),
	}
	for _, n := range p.notifiers {
		if err := n.NotifyNewOrders(ctx, batch); err != nil {
			p.logger.Warn("notifier failed", zap.Error(err))
		}
	}
	metrics.NewOrdersNotified.Add(float64(len(found)))
	p.logger.Info("new orders detected", zap.Int("count", len(found)))
	return found, nil
}

// fetchRecent returns the newest orders of every shop that answered, sorted
// by shop id. Cached listings are bypassed so every cycle sees the store.
func (p *NotificationPoller) fetchRecent(ctx context.Context, targets []ShopTarget, limit int) []pollResult {
	ctx = providers.WithFreshData(ctx)
	var (
		mu      sync.Mutex
		results []pollResult
	)

	query := providers.OrderFilters{SortBy: providers.SortByDate, SortOrder: "desc"}
	page := providers.Pagination{Page: 1, Limit: limit}

	g := new(errgroup.Group)
	g.SetLimit(DefaultShopConcurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			res, err := t.Client.GetOrders(ctx, query, page)
			if err != nil {
				p.logger.Warn("shop skipped in notification poll",
					zap.String("shop_id", t.ShopID),
					zap.Error(err),
				)
				metrics.ShopFetchFailures.WithLabelValues("poller").Inc()
				return nil
			}
			mu.Lock()
			results = append(results, pollResult{target: t, orders: res.Orders})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].target.ShopID < results[j].target.ShopID })
	return results
}

func newOrderEvent(t ShopTarget, o providers.Order, details bool) events.NewOrderEvent {
	e := events.NewOrderEvent{
		OwnerID:  t.OwnerID,
		ShopID:   t.ShopID,
		ShopName: t.Name,
		OrderID:  o.ID,
		Number:   o.Number,
	}
	if details {
		e.Status = string(o.Status)
		e.Total = o.Total
		e.Currency = o.Currency
		e.Customer = o.Billing.FullName()
		e.DateCreated = o.DateCreated
	}
	return e
}
