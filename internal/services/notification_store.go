package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	seenOrdersKeyPrefix     = "lastSeenOrders:"
	notificationSettingsKey = "orderNotificationSettings"
)

// SeenStore persists the order ids the poller already reported per shop.
type SeenStore interface {
	// Load returns ok=false when the shop has no stored set.
	Load(ctx context.Context, shopID string) (ids []int64, ok bool, err error)
	Save(ctx context.Context, shopID string, ids []int64) error
	// Clear drops the sets of the given shops.
	Clear(ctx context.Context, shopIDs ...string) error
}

// NotificationSettings are the operator's new-order alert preferences.
type NotificationSettings struct {
	Enabled     bool          `json:"enabled"`
	Interval    time.Duration `json:"interval"`
	Sound       bool          `json:"sound"`
	ShowDetails bool          `json:"show_details"`
	RecentLimit int           `json:"recent_limit"`
}

// Normalize fills invalid fields from defaults.
func (s NotificationSettings) Normalize(defaults NotificationSettings) NotificationSettings {
	if s.Interval < time.Second {
		s.Interval = defaults.Interval
	}
	if s.RecentLimit <= 0 {
		s.RecentLimit = defaults.RecentLimit
	}
	if s.RecentLimit > 100 {
		s.RecentLimit = 100
	}
	return s
}

// SettingsStore persists NotificationSettings.
type SettingsStore interface {
	// Load returns ok=false when nothing was saved yet.
	Load(ctx context.Context) (NotificationSettings, bool, error)
	Save(ctx context.Context, s NotificationSettings) error
}

// MemorySeenStore keeps seen sets in process memory.
type MemorySeenStore struct {
	mu   sync.Mutex
	sets map[string][]int64
}

// NewMemorySeenStore creates an empty seen store.
func NewMemorySeenStore() *MemorySeenStore {
	return &MemorySeenStore{sets: make(map[string][]int64)}
}

func (m *MemorySeenStore) Load(ctx context.Context, shopID string) ([]int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.sets[shopID]
	if !ok {
		return nil, false, nil
	}
	return append([]int64(nil), ids...), true, nil
}

func (m *MemorySeenStore) Save(ctx context.Context, shopID string, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[shopID] = append([]int64{}, ids...)
	return nil
}

func (m *MemorySeenStore) Clear(ctx context.Context, shopIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range shopIDs {
		delete(m.sets, id)
	}
	return nil
}

// RedisSeenStore stores each shop's seen set as a JSON list under
// lastSeenOrders:<shop>.
type RedisSeenStore struct {
	redis *redis.Client
}

// NewRedisSeenStore creates a Redis-backed seen store.
func NewRedisSeenStore(redisClient *redis.Client) *RedisSeenStore {
	return &RedisSeenStore{redis: redisClient}
}

func (r *RedisSeenStore) Load(ctx context.Context, shopID string) ([]int64, bool, error) {
	data, err := r.redis.Get(ctx, seenOrdersKeyPrefix+shopID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false, err
	}
	return ids, true, nil
}

func (r *RedisSeenStore) Save(ctx context.Context, shopID string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, seenOrdersKeyPrefix+shopID, data, 0).Err()
}

func (r *RedisSeenStore) Clear(ctx context.Context, shopIDs ...string) error {
	if len(shopIDs) == 0 {
		return nil
	}
	keys := make([]string, len(shopIDs))
	for i, id := range shopIDs {
		keys[i] = seenOrdersKeyPrefix + id
	}
	return r.redis.Del(ctx, keys...).Err()
}

// MemorySettingsStore keeps settings in process memory.
type MemorySettingsStore struct {
	mu       sync.Mutex
	settings *NotificationSettings
}

func (m *MemorySettingsStore) Load(ctx context.Context) (NotificationSettings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		return NotificationSettings{}, false, nil
	}
	return *m.settings, true, nil
}

func (m *MemorySettingsStore) Save(ctx context.Context, s NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = &s
	return nil
}

// RedisSettingsStore persists settings under orderNotificationSettings.
type RedisSettingsStore struct {
	redis *redis.Client
}

// NewRedisSettingsStore creates a Redis-backed settings store.
func NewRedisSettingsStore(redisClient *redis.Client) *RedisSettingsStore {
	return &RedisSettingsStore{redis: redisClient}
}

func (r *RedisSettingsStore) Load(ctx context.Context) (NotificationSettings, bool, error) {
	var s NotificationSettings
	data, err := r.redis.Get(ctx, notificationSettingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return s, false, nil
		}
		return s, false, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false, err
	}
	return s, true, nil
}

func (r *RedisSettingsStore) Save(ctx context.Context, s NotificationSettings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, notificationSettingsKey, data, 0).Err()
}

var (
	_ SeenStore     = (*MemorySeenStore)(nil)
	_ SeenStore     = (*RedisSeenStore)(nil)
	_ SettingsStore = (*MemorySettingsStore)(nil)
	_ SettingsStore = (*RedisSettingsStore)(nil)
)
