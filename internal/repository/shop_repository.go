// Package repository persists connected shops.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/niaga-platform/service-wooadmin/internal/models"
)

// ErrNotFound is returned when a shop does not exist for the owner.
var ErrNotFound = errors.New("shop not found")

// ShopStore is the credential store.
type ShopStore interface {
	List(ctx context.Context, ownerID string) ([]models.Shop, error)
	ListActive(ctx context.Context, ownerID string) ([]models.Shop, error)
	ListAllActive(ctx context.Context) ([]models.Shop, error)
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.Shop, error)
	Create(ctx context.Context, shop *models.Shop) error
	Update(ctx context.Context, shop *models.Shop) error
	Delete(ctx context.Context, ownerID string, id uuid.UUID) error
}

// ShopRepository stores shops in Postgres.
type ShopRepository struct {
	db *gorm.DB
}

// NewShopRepository creates a new ShopRepository.
func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// Migrate creates or updates the shops table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Shop{})
}

// List returns every shop of the owner, newest first.
func (r *ShopRepository) List(ctx context.Context, ownerID string) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&shops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return shops, nil
}

// ListActive returns the owner's active shops, newest first.
func (r *ShopRepository) ListActive(ctx context.Context, ownerID string) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Order("created_at DESC").
		Find(&shops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active shops: %w", err)
	}
	return shops, nil
}

// ListAllActive returns the active shops of every owner.
func (r *ShopRepository) ListAllActive(ctx context.Context) ([]models.Shop, error) {
	var shops []models.Shop
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("owner_id, created_at DESC").
		Find(&shops).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active shops: %w", err)
	}
	return shops, nil
}

// GetByID returns one shop of the owner.
func (r *ShopRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&shop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return &shop, nil
}

// Create inserts a shop.
func (r *ShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return fmt.Errorf("failed to create shop: %w", err)
	}
	return nil
}

// Update writes the mutable columns of a shop.
func (r *ShopRepository) Update(ctx context.Context, shop *models.Shop) error {
	result := r.db.WithContext(ctx).
		Model(shop).
		Where("owner_id = ?", shop.OwnerID).
		Updates(map[string]interface{}{
			"name":            shop.Name,
			"url":             shop.URL,
			"consumer_key":    shop.ConsumerKey,
			"consumer_secret": shop.ConsumerSecret,
			"is_active":       shop.IsActive,
			"logo_url":        shop.LogoURL,
			"metadata":        shop.Metadata,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update shop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a shop of the owner.
func (r *ShopRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Shop{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete shop: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryShopRepository keeps shops in process memory. It backs the demo
// data source.
type MemoryShopRepository struct {
	mu    sync.RWMutex
	shops map[uuid.UUID]models.Shop
	now   func() time.Time
}

// NewMemoryShopRepository creates an empty in-memory store.
func NewMemoryShopRepository() *MemoryShopRepository {
	return &MemoryShopRepository{
		shops: make(map[uuid.UUID]models.Shop),
		now:   time.Now,
	}
}

// list matches every owner when ownerID is empty.
func (r *MemoryShopRepository) list(ownerID string, activeOnly bool) []models.Shop {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Shop, 0, len(r.shops))
	for _, s := range r.shops {
		if (ownerID != "" && s.OwnerID != ownerID) || (activeOnly && !s.IsActive) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// List returns every shop of the owner, newest first.
func (r *MemoryShopRepository) List(ctx context.Context, ownerID string) ([]models.Shop, error) {
	return r.list(ownerID, false), nil
}

// ListActive returns the owner's active shops, newest first.
func (r *MemoryShopRepository) ListActive(ctx context.Context, ownerID string) ([]models.Shop, error) {
	return r.list(ownerID, true), nil
}

// ListAllActive returns the active shops of every owner.
func (r *MemoryShopRepository) ListAllActive(ctx context.Context) ([]models.Shop, error) {
	return r.list("", true), nil
}

// GetByID returns one shop of the owner.
func (r *MemoryShopRepository) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (*models.Shop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shops[id]
	if !ok || s.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &s, nil
}

// Create inserts a shop.
func (r *MemoryShopRepository) Create(ctx context.Context, shop *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if shop.ID == uuid.Nil {
		shop.ID = uuid.New()
	}
	if _, exists := r.shops[shop.ID]; exists {
		return fmt.Errorf("failed to create shop: duplicate id %s", shop.ID)
	}
	now := r.now()
	if shop.CreatedAt.IsZero() {
		shop.CreatedAt = now
	}
	shop.UpdatedAt = now
	r.shops[shop.ID] = *shop
	return nil
}

// Update replaces a stored shop.
func (r *MemoryShopRepository) Update(ctx context.Context, shop *models.Shop) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.shops[shop.ID]
	if !ok || existing.OwnerID != shop.OwnerID {
		return ErrNotFound
	}
	shop.CreatedAt = existing.CreatedAt
	shop.UpdatedAt = r.now()
	r.shops[shop.ID] = *shop
	return nil
}

// Delete removes a shop of the owner.
func (r *MemoryShopRepository) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shops[id]
	if !ok || s.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.shops, id)
	return nil
}

var (
	_ ShopStore = (*ShopRepository)(nil)
	_ ShopStore = (*MemoryShopRepository)(nil)
)
