package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/cache"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

const statsDateLayout = "2006-01-02"

// StatsCache stores per-shop statistics under (shop id, from, to). A miss
// and a backend failure both report ok=false.
type StatsCache interface {
	Get(ctx context.Context, shopID string, r providers.DateRange) (*providers.ShopStats, bool)
	Set(ctx context.Context, shopID string, r providers.DateRange, stats providers.ShopStats) error
	Invalidate(ctx context.Context, shopID string) error
}

func statsCacheKey(shopID string, r providers.DateRange) string {
	return fmt.Sprintf("stats:%s:%s:%s", shopID, r.From.Format(statsDateLayout), r.To.Format(statsDateLayout))
}

// MemoryStatsCache keeps statistics in the process TTL cache.
type MemoryStatsCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewMemoryStatsCache creates a stats cache on top of c.
func NewMemoryStatsCache(c *cache.Cache, ttl time.Duration) *MemoryStatsCache {
	return &MemoryStatsCache{cache: c, ttl: ttl}
}

func (m *MemoryStatsCache) Get(ctx context.Context, shopID string, r providers.DateRange) (*providers.ShopStats, bool) {
	stats, ok := cache.GetAs[providers.ShopStats](m.cache, statsCacheKey(shopID, r))
	if !ok {
		return nil, false
	}
	return &stats, true
}

func (m *MemoryStatsCache) Set(ctx context.Context, shopID string, r providers.DateRange, stats providers.ShopStats) error {
	m.cache.Set(statsCacheKey(shopID, r), stats, m.ttl)
	return nil
}

func (m *MemoryStatsCache) Invalidate(ctx context.Context, shopID string) error {
	m.cache.Clear("stats:" + shopID + ":")
	return nil
}

// RedisStatsCache shares statistics between instances through Redis.
type RedisStatsCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

type cachedStats struct {
	Stats    providers.ShopStats `json:"stats"`
	CachedAt time.Time           `json:"cached_at"`
}

// NewRedisStatsCache creates a new Redis stats cache
func NewRedisStatsCache(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStatsCache {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStatsCache{
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisStatsCache) key(shopID string, r providers.DateRange) string {
	return "wooadmin:" + statsCacheKey(shopID, r)
}

// Get retrieves cached statistics
func (s *RedisStatsCache) Get(ctx context.Context, shopID string, r providers.DateRange) (*providers.ShopStats, bool) {
	key := s.key(shopID, r)
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("failed to get stats from cache", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	var cached cachedStats
	if err := json.Unmarshal(data, &cached); err != nil {
		s.logger.Warn("failed to unmarshal cached stats", zap.Error(err))
		return nil, false
	}

	s.logger.Debug("cache hit for stats", zap.String("shop_id", shopID))
	return &cached.Stats, true
}

// Set stores statistics in cache
func (s *RedisStatsCache) Set(ctx context.Context, shopID string, r providers.DateRange, stats providers.ShopStats) error {
	key := s.key(shopID, r)
	data, err := json.Marshal(cachedStats{Stats: stats, CachedAt: time.Now()})
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to set stats in cache", zap.Error(err), zap.String("key", key))
		return err
	}

	s.logger.Debug("cached stats", zap.String("shop_id", shopID), zap.Duration("ttl", s.ttl))
	return nil
}

// Invalidate removes cached statistics for a shop
func (s *RedisStatsCache) Invalidate(ctx context.Context, shopID string) error {
	pattern := fmt.Sprintf("wooadmin:stats:%s:*", shopID)
	keys, err := s.redis.Keys(ctx, pattern).Result()
	if err != nil {
		s.logger.Warn("failed to find cache keys to invalidate", zap.Error(err))
		return err
	}

	if len(keys) > 0 {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			s.logger.Warn("failed to invalidate stats cache", zap.Error(err))
			return err
		}
		s.logger.Debug("invalidated stats cache", zap.String("shop_id", shopID), zap.Int("keys_removed", len(keys)))
	}

	return nil
}

var (
	_ StatsCache = (*MemoryStatsCache)(nil)
	_ StatsCache = (*RedisStatsCache)(nil)
)
