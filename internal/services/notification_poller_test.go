package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-wooadmin/internal/events"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

type recordingNotifier struct {
	mu      sync.Mutex
	batches []events.NewOrdersBatch
}

func (r *recordingNotifier) NotifyNewOrders(ctx context.Context, batch events.NewOrdersBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func eventIDs(evts []events.NewOrderEvent) []int64 {
	var ids []int64
	for _, e := range evts {
		ids = append(ids, e.OrderID)
	}
	return ids
}

func newTestPoller(resolver ShopResolver, seen SeenStore, n Notifier) *NotificationPoller {
	return NewNotificationPoller(PollerConfig{
		Resolver:  resolver,
		Seen:      seen,
		Notifiers: []Notifier{n},
		Defaults:  DefaultNotificationSettings,
	})
}

func TestNotificationPoller_FirstCycleOnlySeeds(t *testing.T) {
	var orders []providers.Order
	for i := int64(1); i <= 5; i++ {
		orders = append(orders, order(i, day(2024, 1, int(i)), providers.StatusProcessing, "1.00"))
	}
	shop := &fakeShop{orders: orders}
	notifier := &recordingNotifier{}
	seen := NewMemorySeenStore()
	poller := newTestPoller(&staticResolver{targets: []ShopTarget{target("a", shop)}}, seen, notifier)

	found, err := poller.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Zero(t, notifier.count())

	ids, ok, err := seen.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestNotificationPoller_ReportsEachNewOrderOnce(t *testing.T) {
	shopA := &fakeShop{orders: []providers.Order{
		order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00"),
		order(2, day(2024, 1, 2), providers.StatusProcessing, "1.00"),
	}}
	shopB := &fakeShop{orders: []providers.Order{order(10, day(2024, 1, 1), providers.StatusPending, "3.00")}}
	notifier := &recordingNotifier{}
	poller := newTestPoller(&staticResolver{targets: []ShopTarget{target("a", shopA), target("b", shopB)}}, NewMemorySeenStore(), notifier)
	ctx := context.Background()

	_, err := poller.PollOnce(ctx)
	require.NoError(t, err)

	shopA.setOrders(
		order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00"),
		order(2, day(2024, 1, 2), providers.StatusProcessing, "1.00"),
		order(3, day(2024, 1, 3), providers.StatusProcessing, "9.90"),
		order(4, day(2024, 1, 4), providers.StatusProcessing, "9.90"),
	)
	shopB.mu.Lock()
	shopB.err = errShopDown
	shopB.mu.Unlock()

	found, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, eventIDs(found))
	require.Equal(t, 1, notifier.count())
	assert.True(t, notifier.batches[0].Sound)
	assert.Len(t, notifier.batches[0].Events, 2)
	assert.Equal(t, "9.90", found[0].Total)
	assert.Equal(t, "op-1", found[0].OwnerID)

	found, err = poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 1, notifier.count())

	// The failing shop kept its seen set and reports what arrived meanwhile.
	shopB.mu.Lock()
	shopB.err = nil
	shopB.orders = append(shopB.orders, order(11, day(2024, 1, 5), providers.StatusPending, "3.00"))
	shopB.mu.Unlock()

	found, err = poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{11}, eventIDs(found))
}

func TestNotificationPoller_NewShopIsSeededSilently(t *testing.T) {
	shopA := &fakeShop{orders: []providers.Order{order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00")}}
	resolver := &staticResolver{targets: []ShopTarget{target("a", shopA)}}
	notifier := &recordingNotifier{}
	poller := newTestPoller(resolver, NewMemorySeenStore(), notifier)
	ctx := context.Background()

	_, err := poller.PollOnce(ctx)
	require.NoError(t, err)

	shopC := &fakeShop{orders: []providers.Order{order(50, day(2024, 1, 1), providers.StatusProcessing, "1.00")}}
	resolver.targets = append(resolver.targets, target("c", shopC))

	found, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Zero(t, notifier.count())
}

func TestNotificationPoller_ResetSeenReseeds(t *testing.T) {
	shop := &fakeShop{orders: []providers.Order{order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00")}}
	notifier := &recordingNotifier{}
	poller := newTestPoller(&staticResolver{targets: []ShopTarget{target("a", shop)}}, NewMemorySeenStore(), notifier)
	ctx := context.Background()

	_, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	require.NoError(t, poller.ResetSeen(ctx, "op-1", ""))

	shop.setOrders(
		order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00"),
		order(2, day(2024, 1, 2), providers.StatusProcessing, "1.00"),
	)
	found, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestNotificationPoller_ResetSeenStaysWithinOwner(t *testing.T) {
	mine := &fakeShop{orders: []providers.Order{order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00")}}
	theirs := &fakeShop{orders: []providers.Order{order(7, day(2024, 1, 1), providers.StatusProcessing, "1.00")}}
	other := target("b", theirs)
	other.OwnerID = "op-2"
	seen := NewMemorySeenStore()
	notifier := &recordingNotifier{}
	poller := newTestPoller(&staticResolver{targets: []ShopTarget{target("a", mine), other}}, seen, notifier)
	ctx := context.Background()

	_, err := poller.PollOnce(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, poller.ResetSeen(ctx, "op-1", "b"), ErrShopNotFound)
	require.NoError(t, poller.ResetSeen(ctx, "op-1", ""))

	_, ok, err := seen.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	ids, ok, err := seen.Load(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{7}, ids)

	// the other owner's pending order is still reported
	theirs.setOrders(
		order(7, day(2024, 1, 1), providers.StatusProcessing, "1.00"),
		order(8, day(2024, 1, 2), providers.StatusProcessing, "1.00"),
	)
	found, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{8}, eventIDs(found))
}

func TestNotificationPoller_HidesDetails(t *testing.T) {
	shop := &fakeShop{orders: []providers.Order{order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00")}}
	notifier := &recordingNotifier{}
	poller := newTestPoller(&staticResolver{targets: []ShopTarget{target("a", shop)}}, NewMemorySeenStore(), notifier)
	ctx := context.Background()

	settings := DefaultNotificationSettings
	settings.ShowDetails = false
	settings.Sound = false
	_, err := poller.UpdateSettings(ctx, settings)
	require.NoError(t, err)

	_, err = poller.PollOnce(ctx)
	require.NoError(t, err)
	shop.setOrders(
		order(1, day(2024, 1, 1), providers.StatusProcessing, "1.00"),
		order(2, day(2024, 1, 2), providers.StatusProcessing, "5.00"),
	)

	found, err := poller.PollOnce(ctx)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Empty(t, found[0].Total)
	assert.Equal(t, "Shop a", found[0].ShopName)
	assert.False(t, notifier.batches[0].Sound)
}

func TestNotificationPoller_SettingsNormalizedAndPersisted(t *testing.T) {
	store := &MemorySettingsStore{}
	poller := NewNotificationPoller(PollerConfig{
		Resolver: &staticResolver{},
		Settings: store,
		Defaults: DefaultNotificationSettings,
	})

	saved, err := poller.UpdateSettings(context.Background(), NotificationSettings{Enabled: true, RecentLimit: 500})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, saved.Interval)
	assert.Equal(t, 100, saved.RecentLimit)

	stored, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, saved, stored)
	assert.Equal(t, saved, poller.Settings())
}

func TestNotificationPoller_StartStop(t *testing.T) {
	shop := &fakeShop{}
	poller := newTestPoller(&staticResolver{targets: []ShopTarget{target("a", shop)}}, NewMemorySeenStore(), &recordingNotifier{})

	require.NoError(t, poller.Start(context.Background()))
	assert.Error(t, poller.Start(context.Background()))

	assert.Eventually(t, func() bool { return len(shop.recorded()) > 0 }, time.Second, 10*time.Millisecond)
	poller.Stop()
	poller.Stop()
}

func TestNotificationHub_RoutesByOwner(t *testing.T) {
	hub := NewNotificationHub(nil)
	mine, cancelMine := hub.Subscribe("op-1")
	defer cancelMine()
	theirs, cancelTheirs := hub.Subscribe("op-2")

	require.NoError(t, hub.NotifyNewOrders(context.Background(), events.NewOrdersBatch{
		Events: []events.NewOrderEvent{{OwnerID: "op-1", OrderID: 1}},
		Sound:  true,
	}))

	select {
	case batch := <-mine:
		assert.Equal(t, []int64{1}, eventIDs(batch.Events))
	case <-time.After(time.Second):
		t.Fatal("expected a batch")
	}
	assert.Empty(t, theirs)

	cancelTheirs()
	_, open := <-theirs
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers("op-2"))
}

func newMiniredis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisSeenStore(t *testing.T) {
	store := NewRedisSeenStore(newMiniredis(t))
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "a", []int64{3, 1}))
	require.NoError(t, store.Save(ctx, "b", nil))

	ids, ok, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{3, 1}, ids)

	_, ok, err = store.Load(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok, "an empty set is still a seeded set")

	require.NoError(t, store.Clear(ctx, "a", "b"))
	_, ok, err = store.Load(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Load(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Clear(ctx))
}

func TestRedisSettingsStore(t *testing.T) {
	store := NewRedisSettingsStore(newMiniredis(t))
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := NotificationSettings{Enabled: true, Interval: 30 * time.Second, Sound: false, ShowDetails: true, RecentLimit: 20}
	require.NoError(t, store.Save(ctx, want))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestRedisStatsCache(t *testing.T) {
	statsCache := NewRedisStatsCache(newMiniredis(t), time.Minute, nil)
	ctx := context.Background()

	_, ok := statsCache.Get(ctx, "s1", january)
	assert.False(t, ok)

	require.NoError(t, statsCache.Set(ctx, "s1", january, providers.ShopStats{ShopID: "s1", TotalOrders: 4}))
	got, ok := statsCache.Get(ctx, "s1", january)
	require.True(t, ok)
	assert.Equal(t, int64(4), got.TotalOrders)

	require.NoError(t, statsCache.Invalidate(ctx, "s1"))
	_, ok = statsCache.Get(ctx, "s1", january)
	assert.False(t, ok)
}
