package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-wooadmin/internal/cache"
	"github.com/niaga-platform/service-wooadmin/internal/config"
	"github.com/niaga-platform/service-wooadmin/internal/events"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
	"github.com/niaga-platform/service-wooadmin/internal/repository"
)

type shopServiceFixture struct {
	svc    *ShopService
	repo   *repository.MemoryShopRepository
	cache  *cache.Cache
	seen   *MemorySeenStore
	mu     sync.Mutex
	shops  map[string]*fakeShop
	builds int
}

func (f *shopServiceFixture) shop(url string) *fakeShop {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.shops[url]; ok {
		return s
	}
	s := &fakeShop{}
	f.shops[url] = s
	return s
}

func newShopServiceFixture(t *testing.T) *shopServiceFixture {
	t.Helper()
	f := &shopServiceFixture{
		repo:  repository.NewMemoryShopRepository(),
		cache: cache.New(time.Minute),
		seen:  NewMemorySeenStore(),
		shops: make(map[string]*fakeShop),
	}
	factory := providers.NewClientFactory(&providers.FactoryConfig{
		Source: "test",
		Builder: func(creds providers.ShopCredentials) (providers.ShopClient, error) {
			f.mu.Lock()
			f.builds++
			f.mu.Unlock()
			return f.shop(creds.URL), nil
		},
	})
	f.svc = NewShopService(ShopServiceConfig{
		Repo:       f.repo,
		Factory:    factory,
		Cache:      f.cache,
		StatsCache: NewMemoryStatsCache(f.cache, time.Minute),
		Seen:       f.seen,
		Overrides: map[string]config.ShopMetadataOverride{
			"Batik.Example.test": {StoreName: "Batik Official", Currency: "MYR", LogoURL: "https://cdn.example.test/batik.png"},
		},
	})
	return f
}

func TestShopService_CreateResolvesMetadataOnce(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, "op-1", CreateShopInput{
		URL:            "https://batik.example.test/",
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://batik.example.test", shop.URL)
	assert.True(t, shop.IsActive)
	assert.Equal(t, "Batik Official", shop.Name)
	meta := shop.GetMetadata()
	assert.Equal(t, "Batik Official", meta.StoreName)
	assert.Equal(t, "shop@example.test", meta.Email)
	require.NotNil(t, shop.LogoURL)
	assert.Equal(t, "https://cdn.example.test/batik.png", *shop.LogoURL)

	stored, err := f.svc.Get(ctx, "op-1", shop.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.Metadata, stored.Metadata)
}

func TestShopService_CreateRejectsFailedConnection(t *testing.T) {
	f := newShopServiceFixture(t)
	f.shop("https://down.example.test").testErr = errShopDown

	_, err := f.svc.Create(context.Background(), "op-1", CreateShopInput{
		Name: "Down", URL: "https://down.example.test", ConsumerKey: "ck", ConsumerSecret: "cs",
	})
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, errShopDown)

	shops, err := f.svc.List(context.Background(), "op-1")
	require.NoError(t, err)
	assert.Empty(t, shops)
}

func TestShopService_CreateValidatesInput(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "op-1", CreateShopInput{URL: "not a url", ConsumerKey: "ck", ConsumerSecret: "cs"})
	assert.ErrorIs(t, err, ErrInvalidShop)

	_, err = f.svc.Create(ctx, "op-1", CreateShopInput{URL: "https://a.example.test"})
	assert.ErrorIs(t, err, ErrInvalidShop)
}

func TestShopService_TestConnectionPersistsNothing(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.TestConnection(ctx, "https://ok.example.test", "ck", "cs"))

	f.shop("https://bad.example.test").testErr = errShopDown
	assert.ErrorIs(t, f.svc.TestConnection(ctx, "https://bad.example.test", "ck", "cs"), ErrConnectionFailed)

	shops, err := f.svc.List(ctx, "op-1")
	require.NoError(t, err)
	assert.Empty(t, shops)
}

func TestShopService_ToggleAndActiveTargets(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, "op-1", CreateShopInput{Name: "A", URL: "https://a.example.test", ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)
	b, err := f.svc.Create(ctx, "op-1", CreateShopInput{Name: "B", URL: "https://b.example.test", ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)

	toggled, err := f.svc.Toggle(ctx, "op-1", b.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	targets, err := f.svc.ActiveTargets(ctx, "op-1", nil)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, a.ID.String(), targets[0].ShopID)
	assert.Equal(t, "A", targets[0].Name)

	_, err = f.svc.ActiveTargets(ctx, "op-1", []string{b.ID.String()})
	assert.ErrorIs(t, err, ErrNoActiveShops)

	_, err = f.svc.ActiveTargets(ctx, "op-2", nil)
	assert.ErrorIs(t, err, ErrNoActiveShops)

	all, err := f.svc.AllActiveTargets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestShopService_UpdateRetestsChangedCredentials(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, "op-1", CreateShopInput{Name: "A", URL: "https://a.example.test", ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)

	f.shop("https://moved.example.test").testErr = errShopDown
	moved := "https://moved.example.test"
	_, err = f.svc.Update(ctx, "op-1", shop.ID, UpdateShopInput{URL: &moved})
	assert.ErrorIs(t, err, ErrConnectionFailed)

	stored, err := f.svc.Get(ctx, "op-1", shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.test", stored.URL)

	renamed := "A2"
	updated, err := f.svc.Update(ctx, "op-1", shop.ID, UpdateShopInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "A2", updated.Name)
}

func TestShopService_DeleteClearsShopState(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, "op-1", CreateShopInput{Name: "A", URL: "https://a.example.test", ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)
	id := shop.ID.String()

	f.cache.Set("orders:"+id+":page=1", "cached", 0)
	f.cache.Set("orders:other:page=1", "cached", 0)
	require.NoError(t, f.seen.Save(ctx, id, []int64{1}))

	require.NoError(t, f.svc.Delete(ctx, "op-1", shop.ID))

	assert.False(t, f.cache.Has("orders:"+id+":page=1"))
	assert.True(t, f.cache.Has("orders:other:page=1"))
	_, ok, err := f.seen.Load(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, f.svc.Delete(ctx, "op-1", shop.ID), ErrShopNotFound)
	_, err = f.svc.Get(ctx, "op-1", uuid.New())
	assert.ErrorIs(t, err, ErrShopNotFound)
}

type recordingPublisher struct {
	events []events.OrderStatusUpdatedEvent
}

func (r *recordingPublisher) PublishOrderStatusUpdated(ctx context.Context, e events.OrderStatusUpdatedEvent) error {
	r.events = append(r.events, e)
	return nil
}

func TestOrderService_UpdateStatus(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()
	publisher := &recordingPublisher{}
	orders := NewOrderService(f.svc, publisher, nil)

	shop, err := f.svc.Create(ctx, "op-1", CreateShopInput{Name: "A", URL: "https://a.example.test", ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)
	f.shop("https://a.example.test").setOrders(order(5, day(2024, 1, 5), providers.StatusPending, "1.00"))

	updated, err := orders.UpdateStatus(ctx, "op-1", shop.ID, 5, providers.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, providers.StatusCompleted, updated.Status)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "completed", publisher.events[0].Status)

	_, err = orders.UpdateStatus(ctx, "op-1", shop.ID, 99, providers.StatusCompleted)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = orders.UpdateStatus(ctx, "op-1", shop.ID, 5, providers.OrderStatus("shipped"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	f.shop("https://a.example.test").err = errShopDown
	_, err = orders.UpdateStatus(ctx, "op-1", shop.ID, 5, providers.StatusPending)
	assert.ErrorIs(t, err, errShopDown)
	assert.Len(t, publisher.events, 1)
}

func TestOrderService_Report(t *testing.T) {
	f := newShopServiceFixture(t)
	ctx := context.Background()
	orders := NewOrderService(f.svc, nil, nil)

	shop, err := f.svc.Create(ctx, "op-1", CreateShopInput{Name: "A", URL: "https://a.example.test", ConsumerKey: "ck", ConsumerSecret: "cs"})
	require.NoError(t, err)
	fake := f.shop("https://a.example.test")
	fake.sellers = []providers.TopSeller{{ProductID: 9, Name: "Batik Scarf", Quantity: 12}}
	fake.totals = []providers.OrderTotal{{Status: providers.StatusCompleted, Name: "Completed", Total: 40}}

	report, err := orders.Report(ctx, "op-1", shop.ID, january)
	require.NoError(t, err)
	assert.Equal(t, shop.ID.String(), report.ShopID)
	assert.Equal(t, fake.sellers, report.TopSellers)
	assert.Equal(t, fake.totals, report.OrderTotals)

	_, err = orders.Report(ctx, "op-2", shop.ID, january)
	assert.ErrorIs(t, err, ErrShopNotFound)

	fake.reportErr = errShopDown
	_, err = orders.Report(ctx, "op-1", shop.ID, january)
	assert.ErrorIs(t, err, errShopDown)
}
