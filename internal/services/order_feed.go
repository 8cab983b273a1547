package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/niaga-platform/service-wooadmin/internal/metrics"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// ErrFeedNotFound is returned for unknown or expired feed sessions.
var ErrFeedNotFound = errors.New("feed not found")

const (
	DefaultFeedWindowDays  = 7
	DefaultFeedPerShopSize = 100
	feedIdleTTL            = 30 * time.Minute
)

// FeedState is the lifecycle state of a feed session.
type FeedState string

const (
	FeedIdle      FeedState = "idle"
	FeedLoading   FeedState = "loading"
	FeedMerged    FeedState = "merged"
	FeedExhausted FeedState = "exhausted"
)

// FeedFilters select what the merged feed shows. From is the lower bound
// the window never slides past; To is the end of the first window and
// defaults to today.
type FeedFilters struct {
	ShopIDs  []string                `json:"shop_ids,omitempty"`
	Statuses []providers.OrderStatus `json:"statuses,omitempty"`
	Search   string                  `json:"search,omitempty"`
	From     time.Time               `json:"from,omitempty"`
	To       time.Time               `json:"to,omitempty"`
}

// FeedOrder is an order tagged with the shop it came from.
type FeedOrder struct {
	providers.Order
	ShopName string `json:"shop_name"`
}

// FeedSnapshot is the client-visible state of a feed session.
type FeedSnapshot struct {
	ID          uuid.UUID   `json:"id"`
	State       FeedState   `json:"state"`
	Orders      []FeedOrder `json:"orders"`
	WindowStart time.Time   `json:"window_start,omitempty"`
	WindowEnd   time.Time   `json:"window_end,omitempty"`
	HasMore     bool        `json:"has_more"`
	FailedShops []string    `json:"failed_shops,omitempty"`
	Filters     FeedFilters `json:"filters"`
}

type feedKey struct {
	shopID  string
	orderID int64
}

type orderFeed struct {
	mu         sync.Mutex
	id         uuid.UUID
	ownerID    string
	filters    FeedFilters
	state      FeedState
	nextEnd    time.Time
	lowerBound time.Time
	merged     map[feedKey]FeedOrder
	sorted     []FeedOrder
	lastStart  time.Time
	lastEnd    time.Time
	failed     []string
	generation uint64
	lastUsed   time.Time
}

// FeedConfig sizes the sliding window.
type FeedConfig struct {
	WindowDays  int
	PerShopSize int
}

// FeedService keeps merged multi-shop order feeds, one per session.
type FeedService struct {
	resolver    ShopResolver
	windowDays  int
	perShopSize int
	concurrency int
	logger      *zap.Logger
	now         func() time.Time

	mu    sync.Mutex
	feeds map[uuid.UUID]*orderFeed
}

// NewFeedService creates a new feed service.
func NewFeedService(resolver ShopResolver, cfg FeedConfig, logger *zap.Logger) *FeedService {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultFeedWindowDays
	}
	if cfg.PerShopSize <= 0 {
		cfg.PerShopSize = DefaultFeedPerShopSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedService{
		resolver:    resolver,
		windowDays:  cfg.WindowDays,
		perShopSize: cfg.PerShopSize,
		concurrency: DefaultShopConcurrency,
		logger:      logger,
		now:         time.Now,
		feeds:       make(map[uuid.UUID]*orderFeed),
	}
}

// Create opens a feed session and loads its first window.
func (s *FeedService) Create(ctx context.Context, ownerID string, filters FeedFilters) (*FeedSnapshot, error) {
	feed := &orderFeed{id: uuid.New(), ownerID: ownerID}
	s.reset(feed, filters)

	s.mu.Lock()
	s.sweepLocked()
	s.feeds[feed.id] = feed
	s.mu.Unlock()

	return s.load(ctx, feed)
}

// Get returns the current state of a feed.
func (s *FeedService) Get(ownerID string, id uuid.UUID) (*FeedSnapshot, error) {
	feed, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.snapshotLocked(), nil
}

// LoadMore slides the window back one step. An exhausted or loading feed
// is returned unchanged.
func (s *FeedService) LoadMore(ctx context.Context, ownerID string, id uuid.UUID) (*FeedSnapshot, error) {
	feed, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, feed)
}

// SetFilters discards the merged orders and restarts from the first window.
// Loads still in flight for the old filters are dropped when they finish.
func (s *FeedService) SetFilters(ctx context.Context, ownerID string, id uuid.UUID, filters FeedFilters) (*FeedSnapshot, error) {
	feed, err := s.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	s.reset(feed, filters)
	return s.load(ctx, feed)
}

// Delete closes a feed session.
func (s *FeedService) Delete(ownerID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[id]
	if !ok || feed.ownerID != ownerID {
		return ErrFeedNotFound
	}
	delete(s.feeds, id)
	return nil
}

func (s *FeedService) lookup(ownerID string, id uuid.UUID) (*orderFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[id]
	if !ok || feed.ownerID != ownerID {
		return nil, ErrFeedNotFound
	}
	feed.mu.Lock()
	feed.lastUsed = s.now()
	feed.mu.Unlock()
	return feed, nil
}

// sweepLocked drops sessions idle for longer than feedIdleTTL. s.mu must be
// held.
func (s *FeedService) sweepLocked() {
	cutoff := s.now().Add(-feedIdleTTL)
	for id, feed := range s.feeds {
		feed.mu.Lock()
		idle := feed.lastUsed.Before(cutoff)
		feed.mu.Unlock()
		if idle {
			delete(s.feeds, id)
		}
	}
}

func (s *FeedService) reset(feed *orderFeed, filters FeedFilters) {
	feed.mu.Lock()
	defer feed.mu.Unlock()

	end := filters.To
	if end.IsZero() {
		end = s.now()
	}
	feed.filters = filters
	feed.state = FeedIdle
	feed.nextEnd = providers.EndOfDay(end)
	feed.lowerBound = time.Time{}
	if !filters.From.IsZero() {
		feed.lowerBound = providers.StartOfDay(filters.From)
	}
	feed.merged = make(map[feedKey]FeedOrder)
	feed.sorted = nil
	feed.lastStart = time.Time{}
	feed.lastEnd = time.Time{}
	feed.failed = nil
	feed.generation++
	feed.lastUsed = s.now()
}

// window returns the next window to fetch: windowDays calendar days ending
// at nextEnd, clipped to the lower bound.
func (s *FeedService) window(feed *orderFeed) (start, end time.Time) {
	end = feed.nextEnd
	start = providers.StartOfDay(end).AddDate(0, 0, -(s.windowDays - 1))
	if !feed.lowerBound.IsZero() && start.Before(feed.lowerBound) {
		start = feed.lowerBound
	}
	return start, end
}

type shopWindowResult struct {
	target ShopTarget
	orders []providers.Order
}

func (s *FeedService) load(ctx context.Context, feed *orderFeed) (*FeedSnapshot, error) {
	feed.mu.Lock()
	if feed.state == FeedLoading || feed.state == FeedExhausted {
		snap := feed.snapshotLocked()
		feed.mu.Unlock()
		return snap, nil
	}
	start, end := s.window(feed)
	if start.After(end) {
		feed.state = FeedExhausted
		snap := feed.snapshotLocked()
		feed.mu.Unlock()
		return snap, nil
	}
	prev := feed.state
	gen := feed.generation
	filters := feed.filters
	ownerID := feed.ownerID
	feed.state = FeedLoading
	feed.mu.Unlock()

	targets, err := s.resolver.ActiveTargets(ctx, ownerID, filters.ShopIDs)
	if err != nil {
		feed.mu.Lock()
		if feed.generation == gen {
			feed.state = prev
		}
		feed.mu.Unlock()
		return nil, err
	}

	results, failed := s.fetchWindow(ctx, targets, filters, start, end)

	feed.mu.Lock()
	defer feed.mu.Unlock()

	if feed.generation != gen {
		s.logger.Debug("dropping stale feed window",
			zap.String("feed_id", feed.id.String()),
			zap.Time("window_start", start),
		)
		return feed.snapshotLocked(), nil
	}

	fetched := 0
	for _, r := range results {
		fetched += len(r.orders)
	}

	feed.failed = failed
	if len(failed) > 0 && fetched == 0 {
		// The window may still hold orders of the shops that failed; keep it
		// so the next load retries it.
		feed.state = FeedMerged
		if len(failed) == len(targets) && prev == FeedIdle && len(feed.sorted) == 0 {
			feed.state = FeedIdle
		}
		return feed.snapshotLocked(), nil
	}

	for _, r := range results {
		for _, o := range r.orders {
			o.ShopID = r.target.ShopID
			feed.merged[feedKey{shopID: r.target.ShopID, orderID: o.ID}] = FeedOrder{Order: o, ShopName: r.target.Name}
		}
	}
	feed.sorted = sortFeed(feed.merged)
	feed.lastStart, feed.lastEnd = start, end

	reachedBound := !feed.lowerBound.IsZero() && !start.After(feed.lowerBound)
	if fetched == 0 || reachedBound {
		feed.state = FeedExhausted
	} else {
		feed.state = FeedMerged
		feed.nextEnd = providers.EndOfDay(start.AddDate(0, 0, -1))
	}

	s.logger.Debug("feed window merged",
		zap.String("feed_id", feed.id.String()),
		zap.Time("window_start", start),
		zap.Time("window_end", end),
		zap.Int("fetched", fetched),
		zap.Int("merged", len(feed.sorted)),
	)
	return feed.snapshotLocked(), nil
}

// fetchWindow asks every shop for its orders in [start, end]. A failing shop
// contributes nothing and is reported in failed.
func (s *FeedService) fetchWindow(ctx context.Context, targets []ShopTarget, filters FeedFilters, start, end time.Time) ([]shopWindowResult, []string) {
	var (
		mu      sync.Mutex
		results []shopWindowResult
		failed  []string
	)

	query := providers.OrderFilters{
		Statuses:  filters.Statuses,
		Search:    filters.Search,
		DateFrom:  start,
		DateTo:    end,
		SortBy:    providers.SortByDate,
		SortOrder: "desc",
	}
	page := providers.Pagination{Page: 1, Limit: s.perShopSize}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			res, err := t.Client.GetOrders(ctx, query, page)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("shop skipped in feed window",
					zap.String("shop_id", t.ShopID),
					zap.Error(err),
				)
				metrics.ShopFetchFailures.WithLabelValues("feed").Inc()
				failed = append(failed, t.ShopID)
				return nil
			}
			results = append(results, shopWindowResult{target: t, orders: res.Orders})
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	return results, failed
}

// sortFeed orders by creation time, newest first. Ties fall back to shop id
// and then order id so the order is stable across loads.
func sortFeed(merged map[feedKey]FeedOrder) []FeedOrder {
	out := make([]FeedOrder, 0, len(merged))
	for _, o := range merged {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DateCreated.Equal(b.DateCreated) {
			return a.DateCreated.After(b.DateCreated)
		}
		if a.ShopID != b.ShopID {
			return a.ShopID < b.ShopID
		}
		return a.ID > b.ID
	})
	return out
}

func (f *orderFeed) snapshotLocked() *FeedSnapshot {
	orders := make([]FeedOrder, len(f.sorted))
	copy(orders, f.sorted)
	return &FeedSnapshot{
		ID:          f.id,
		State:       f.state,
		Orders:      orders,
		WindowStart: f.lastStart,
		WindowEnd:   f.lastEnd,
		HasMore:     f.state != FeedExhausted,
		FailedShops: append([]string(nil), f.failed...),
		Filters:     f.filters,
	}
}
