package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

func feedIDs(snap *FeedSnapshot) []int64 {
	ids := make([]int64, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestFeedService_MergesShopsNewestFirst(t *testing.T) {
	shopA := &fakeShop{orders: []providers.Order{
		order(101, day(2024, 1, 2), providers.StatusCompleted, "10.00"),
		order(102, day(2024, 1, 5), providers.StatusProcessing, "20.00"),
	}}
	shopB := &fakeShop{orders: []providers.Order{
		order(201, day(2024, 1, 4), providers.StatusPending, "5.00"),
	}}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("a", shopA), target("b", shopB)}}, FeedConfig{}, nil)

	snap, err := svc.Create(context.Background(), "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)

	assert.Equal(t, []int64{102, 201, 101}, feedIDs(snap))
	assert.Equal(t, FeedMerged, snap.State)
	assert.True(t, snap.HasMore)
	assert.Equal(t, "b", snap.Orders[1].ShopID)
	assert.Equal(t, "Shop b", snap.Orders[1].ShopName)
	assert.Equal(t, time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC), snap.WindowStart)

	// The previous week is empty, so the feed stops.
	snap, err = svc.LoadMore(context.Background(), "op-1", snap.ID)
	require.NoError(t, err)
	assert.Equal(t, FeedExhausted, snap.State)
	assert.False(t, snap.HasMore)
	assert.Len(t, snap.Orders, 3)
}

func TestFeedService_NeverCrossesLowerBound(t *testing.T) {
	shop := &fakeShop{}
	var orders []providers.Order
	for d := 1; d <= 20; d++ {
		orders = append(orders, order(int64(d), day(2024, 1, d), providers.StatusCompleted, "1.00"))
	}
	shop.setOrders(orders...)

	lower := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("a", shop)}}, FeedConfig{WindowDays: 7}, nil)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "op-1", FeedFilters{From: day(2024, 1, 1), To: day(2024, 1, 20)})
	require.NoError(t, err)
	for snap.HasMore {
		snap, err = svc.LoadMore(ctx, "op-1", snap.ID)
		require.NoError(t, err)
	}

	assert.Equal(t, FeedExhausted, snap.State)
	assert.Len(t, snap.Orders, 20)
	assert.Equal(t, int64(20), snap.Orders[0].ID)
	assert.Equal(t, lower, snap.WindowStart)

	queries := shop.recorded()
	require.Len(t, queries, 3)
	for _, q := range queries {
		assert.False(t, q.DateFrom.Before(lower), "window starts at %s", q.DateFrom)
	}

	// An exhausted feed does not fetch again.
	_, err = svc.LoadMore(ctx, "op-1", snap.ID)
	require.NoError(t, err)
	assert.Len(t, shop.recorded(), 3)
}

func TestFeedService_DeduplicatesRepeatedOrders(t *testing.T) {
	shop := &fakeShop{ignoreDates: true, orders: []providers.Order{
		order(1, day(2024, 1, 3), providers.StatusCompleted, "1.00"),
		order(2, day(2024, 1, 4), providers.StatusCompleted, "1.00"),
	}}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("a", shop)}}, FeedConfig{}, nil)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)
	snap, err = svc.LoadMore(ctx, "op-1", snap.ID)
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 1}, feedIDs(snap))
}

func TestFeedService_ToleratesFailingShop(t *testing.T) {
	good := &fakeShop{orders: []providers.Order{order(7, day(2024, 1, 5), providers.StatusCompleted, "1.00")}}
	bad := &fakeShop{err: errShopDown}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("good", good), target("bad", bad)}}, FeedConfig{}, nil)

	snap, err := svc.Create(context.Background(), "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)

	assert.Equal(t, []int64{7}, feedIDs(snap))
	assert.Equal(t, []string{"bad"}, snap.FailedShops)
	assert.Equal(t, FeedMerged, snap.State)
}

func TestFeedService_AllShopsFailingKeepsWindow(t *testing.T) {
	bad := &fakeShop{err: errShopDown}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("bad", bad)}}, FeedConfig{}, nil)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)
	assert.Equal(t, FeedIdle, snap.State)
	assert.True(t, snap.HasMore)

	_, err = svc.LoadMore(ctx, "op-1", snap.ID)
	require.NoError(t, err)

	queries := bad.recorded()
	require.Len(t, queries, 2)
	assert.Equal(t, queries[0].DateFrom, queries[1].DateFrom)
}

func TestFeedService_EmptyWindowWithFailingShopIsRetried(t *testing.T) {
	quiet := &fakeShop{}
	flaky := &fakeShop{
		err:    errShopDown,
		orders: []providers.Order{order(9, day(2024, 1, 4), providers.StatusProcessing, "3.00")},
	}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("quiet", quiet), target("flaky", flaky)}}, FeedConfig{}, nil)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)
	assert.Equal(t, FeedMerged, snap.State)
	assert.True(t, snap.HasMore)
	assert.Equal(t, []string{"flaky"}, snap.FailedShops)
	assert.Empty(t, snap.Orders)

	flaky.mu.Lock()
	flaky.err = nil
	flaky.mu.Unlock()

	snap, err = svc.LoadMore(ctx, "op-1", snap.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, feedIDs(snap))
	assert.Empty(t, snap.FailedShops)

	queries := flaky.recorded()
	require.Len(t, queries, 2)
	assert.Equal(t, queries[0].DateFrom, queries[1].DateFrom)
}

func TestFeedService_SetFiltersResets(t *testing.T) {
	shop := &fakeShop{orders: []providers.Order{
		order(1, day(2024, 1, 3), providers.StatusCompleted, "1.00"),
		order(2, day(2024, 1, 4), providers.StatusPending, "1.00"),
	}}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("a", shop)}}, FeedConfig{}, nil)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)
	require.Len(t, snap.Orders, 2)

	snap, err = svc.SetFilters(ctx, "op-1", snap.ID, FeedFilters{
		To:       day(2024, 1, 5),
		Statuses: []providers.OrderStatus{providers.StatusPending},
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, feedIDs(snap))
	assert.Equal(t, FeedMerged, snap.State)
}

func TestFeedService_SessionsAreOwnerScoped(t *testing.T) {
	shop := &fakeShop{}
	svc := NewFeedService(&staticResolver{targets: []ShopTarget{target("a", shop)}}, FeedConfig{}, nil)
	ctx := context.Background()

	snap, err := svc.Create(ctx, "op-1", FeedFilters{To: day(2024, 1, 5)})
	require.NoError(t, err)

	_, err = svc.LoadMore(ctx, "op-2", snap.ID)
	assert.ErrorIs(t, err, ErrFeedNotFound)
	assert.ErrorIs(t, svc.Delete("op-2", snap.ID), ErrFeedNotFound)

	require.NoError(t, svc.Delete("op-1", snap.ID))
	_, err = svc.Get("op-1", snap.ID)
	assert.ErrorIs(t, err, ErrFeedNotFound)
}

func TestFeedService_NoActiveShops(t *testing.T) {
	svc := NewFeedService(&staticResolver{}, FeedConfig{}, nil)

	_, err := svc.Create(context.Background(), "op-1", FeedFilters{})
	assert.ErrorIs(t, err, ErrNoActiveShops)
}
