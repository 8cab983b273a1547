package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/cache"
	"github.com/niaga-platform/service-wooadmin/internal/config"
	"github.com/niaga-platform/service-wooadmin/internal/models"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
	"github.com/niaga-platform/service-wooadmin/internal/providers/woocommerce"
	"github.com/niaga-platform/service-wooadmin/internal/repository"
)

var (
	ErrShopNotFound     = errors.New("shop not found")
	ErrNoActiveShops    = errors.New("no active shops")
	ErrInvalidShop      = errors.New("invalid shop")
	ErrConnectionFailed = errors.New("connection test failed")
)

// ShopTarget is an active shop resolved to its data-source client.
type ShopTarget struct {
	ShopID   string
	OwnerID  string
	Name     string
	Currency string
	Client   providers.ShopClient
}

// ShopResolver turns stored shops into clients for the aggregators.
type ShopResolver interface {
	// ActiveTargets returns the owner's active shops, narrowed to shopIDs
	// when it is not empty. It returns ErrNoActiveShops when nothing is left.
	ActiveTargets(ctx context.Context, ownerID string, shopIDs []string) ([]ShopTarget, error)
	// AllActiveTargets returns the active shops of every owner.
	AllActiveTargets(ctx context.Context) ([]ShopTarget, error)
	// ShopIDs returns the ids of every shop the owner has, active or not.
	ShopIDs(ctx context.Context, ownerID string) ([]string, error)
}

// CreateShopInput is a new shop connection.
type CreateShopInput struct {
	Name           string
	URL            string
	ConsumerKey    string
	ConsumerSecret string
	LogoURL        *string
	IsActive       *bool
}

// UpdateShopInput changes the non-nil fields of a shop.
type UpdateShopInput struct {
	Name           *string
	URL            *string
	ConsumerKey    *string
	ConsumerSecret *string
	LogoURL        *string
	IsActive       *bool
}

// ShopService manages connected shops.
type ShopService struct {
	repo       repository.ShopStore
	factory    *providers.ClientFactory
	cache      *cache.Cache
	statsCache StatsCache
	seen       SeenStore
	overrides  map[string]config.ShopMetadataOverride
	logger     *zap.Logger
}

// ShopServiceConfig holds the collaborators of the shop service.
type ShopServiceConfig struct {
	Repo       repository.ShopStore
	Factory    *providers.ClientFactory
	Cache      *cache.Cache
	StatsCache StatsCache
	Seen       SeenStore
	Overrides  map[string]config.ShopMetadataOverride
	Logger     *zap.Logger
}

// NewShopService creates a new shop service.
func NewShopService(cfg ShopServiceConfig) *ShopService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	overrides := make(map[string]config.ShopMetadataOverride, len(cfg.Overrides))
	for host, o := range cfg.Overrides {
		overrides[strings.ToLower(host)] = o
	}
	return &ShopService{
		repo:       cfg.Repo,
		factory:    cfg.Factory,
		cache:      cfg.Cache,
		statsCache: cfg.StatsCache,
		seen:       cfg.Seen,
		overrides:  overrides,
		logger:     logger,
	}
}

// List returns the operator's shops.
func (s *ShopService) List(ctx context.Context, ownerID string) ([]models.Shop, error) {
	return s.repo.List(ctx, ownerID)
}

// Get returns one of the operator's shops.
func (s *ShopService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.Shop, error) {
	shop, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return shop, nil
}

// Create tests the credentials, resolves store metadata once and stores the
// shop.
func (s *ShopService) Create(ctx context.Context, ownerID string, in CreateShopInput) (*models.Shop, error) {
	storeURL, err := woocommerce.NormalizeStoreURL(in.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShop, err)
	}
	if in.ConsumerKey == "" || in.ConsumerSecret == "" {
		return nil, fmt.Errorf("%w: consumer key and secret are required", ErrInvalidShop)
	}

	shop := &models.Shop{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(in.Name),
		URL:            storeURL,
		ConsumerKey:    in.ConsumerKey,
		ConsumerSecret: in.ConsumerSecret,
		IsActive:       true,
		LogoURL:        in.LogoURL,
	}
	if in.IsActive != nil {
		shop.IsActive = *in.IsActive
	}

	client, err := s.factory.NewUncached(shop.Credentials())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShop, err)
	}
	if err := client.TestConnection(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if err := s.resolveMetadata(ctx, shop, client); err != nil {
		return nil, err
	}
	if shop.Name == "" {
		shop.Name = shop.GetMetadata().StoreName
	}

	if err := s.repo.Create(ctx, shop); err != nil {
		return nil, err
	}

	s.logger.Info("shop connected",
		zap.String("shop_id", shop.ID.String()),
		zap.String("owner_id", ownerID),
		zap.String("url", shop.URL),
	)
	return shop, nil
}

// resolveMetadata fetches store metadata and applies the configured override
// for the shop's host. A failed fetch leaves only the override.
func (s *ShopService) resolveMetadata(ctx context.Context, shop *models.Shop, client providers.ShopClient) error {
	var meta models.ShopMetadata
	info, err := client.GetStoreInfo(ctx)
	if err != nil {
		s.logger.Warn("failed to fetch store metadata",
			zap.String("url", shop.URL),
			zap.Error(err),
		)
	} else {
		meta = models.ShopMetadata{
			StoreName:      info.StoreName,
			Address:        info.Address,
			Email:          info.Email,
			Currency:       info.Currency,
			CurrencySymbol: info.CurrencySymbol,
			Version:        info.Version,
		}
	}

	if o, ok := s.overrides[hostOf(shop.URL)]; ok {
		if o.StoreName != "" {
			meta.StoreName = o.StoreName
		}
		if o.Address != "" {
			meta.Address = o.Address
		}
		if o.Email != "" {
			meta.Email = o.Email
		}
		if o.Currency != "" {
			meta.Currency = o.Currency
		}
		if o.LogoURL != "" && shop.LogoURL == nil {
			logo := o.LogoURL
			shop.LogoURL = &logo
		}
	}

	return shop.SetMetadata(meta)
}

// Update applies the changed fields. New credentials are tested before they
// are stored.
func (s *ShopService) Update(ctx context.Context, ownerID string, id uuid.UUID, in UpdateShopInput) (*models.Shop, error) {
	shop, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	credsChanged := false
	if in.Name != nil {
		shop.Name = strings.TrimSpace(*in.Name)
	}
	if in.URL != nil {
		storeURL, err := woocommerce.NormalizeStoreURL(*in.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShop, err)
		}
		credsChanged = credsChanged || storeURL != shop.URL
		shop.URL = storeURL
	}
	if in.ConsumerKey != nil && *in.ConsumerKey != "" {
		credsChanged = credsChanged || *in.ConsumerKey != shop.ConsumerKey
		shop.ConsumerKey = *in.ConsumerKey
	}
	if in.ConsumerSecret != nil && *in.ConsumerSecret != "" {
		credsChanged = credsChanged || *in.ConsumerSecret != shop.ConsumerSecret
		shop.ConsumerSecret = *in.ConsumerSecret
	}
	if in.LogoURL != nil {
		shop.LogoURL = in.LogoURL
	}
	if in.IsActive != nil {
		shop.IsActive = *in.IsActive
	}

	if credsChanged {
		client, err := s.factory.NewUncached(shop.Credentials())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidShop, err)
		}
		if err := client.TestConnection(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
	}

	if err := s.repo.Update(ctx, shop); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}

	s.invalidate(ctx, shop.ID.String(), false)
	return shop, nil
}

// Toggle flips the active flag.
func (s *ShopService) Toggle(ctx context.Context, ownerID string, id uuid.UUID) (*models.Shop, error) {
	shop, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	active := !shop.IsActive
	return s.Update(ctx, ownerID, id, UpdateShopInput{IsActive: &active})
}

// Delete removes the shop with its cached responses and seen orders.
func (s *ShopService) Delete(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrShopNotFound
		}
		return err
	}

	s.invalidate(ctx, id.String(), true)
	s.logger.Info("shop deleted", zap.String("shop_id", id.String()), zap.String("owner_id", ownerID))
	return nil
}

func (s *ShopService) invalidate(ctx context.Context, shopID string, forgetSeen bool) {
	s.factory.Forget(shopID)
	if s.cache != nil {
		s.cache.Clear(shopID)
	}
	if s.statsCache != nil {
		if err := s.statsCache.Invalidate(ctx, shopID); err != nil {
			s.logger.Warn("failed to invalidate stats cache", zap.String("shop_id", shopID), zap.Error(err))
		}
	}
	if forgetSeen && s.seen != nil {
		if err := s.seen.Clear(ctx, shopID); err != nil {
			s.logger.Warn("failed to clear seen orders", zap.String("shop_id", shopID), zap.Error(err))
		}
	}
}

// TestConnection checks credentials without storing anything.
func (s *ShopService) TestConnection(ctx context.Context, rawURL, consumerKey, consumerSecret string) error {
	storeURL, err := woocommerce.NormalizeStoreURL(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShop, err)
	}
	client, err := s.factory.NewUncached(providers.ShopCredentials{
		ID:             "connection-test",
		URL:            storeURL,
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidShop, err)
	}
	if err := client.TestConnection(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// Client returns a shop with its data-source client.
func (s *ShopService) Client(ctx context.Context, ownerID string, id uuid.UUID) (*models.Shop, providers.ShopClient, error) {
	shop, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	client, err := s.factory.ClientFor(shop.Credentials())
	if err != nil {
		return nil, nil, err
	}
	return shop, client, nil
}

// ActiveTargets implements ShopResolver.
func (s *ShopService) ActiveTargets(ctx context.Context, ownerID string, shopIDs []string) ([]ShopTarget, error) {
	shops, err := s.repo.ListActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if len(shopIDs) > 0 {
		wanted := make(map[string]bool, len(shopIDs))
		for _, id := range shopIDs {
			wanted[id] = true
		}
		filtered := shops[:0]
		for _, shop := range shops {
			if wanted[shop.ID.String()] {
				filtered = append(filtered, shop)
			}
		}
		shops = filtered
	}

	targets := s.targets(shops)
	if len(targets) == 0 {
		return nil, ErrNoActiveShops
	}
	return targets, nil
}

// AllActiveTargets implements ShopResolver.
func (s *ShopService) AllActiveTargets(ctx context.Context) ([]ShopTarget, error) {
	shops, err := s.repo.ListAllActive(ctx)
	if err != nil {
		return nil, err
	}
	return s.targets(shops), nil
}

// ShopIDs implements ShopResolver.
func (s *ShopService) ShopIDs(ctx context.Context, ownerID string) ([]string, error) {
	shops, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(shops))
	for i := range shops {
		ids[i] = shops[i].ID.String()
	}
	return ids, nil
}

func (s *ShopService) targets(shops []models.Shop) []ShopTarget {
	targets := make([]ShopTarget, 0, len(shops))
	for i := range shops {
		shop := &shops[i]
		client, err := s.factory.ClientFor(shop.Credentials())
		if err != nil {
			s.logger.Warn("skipping shop without client",
				zap.String("shop_id", shop.ID.String()),
				zap.Error(err),
			)
			continue
		}
		targets = append(targets, ShopTarget{
			ShopID:   shop.ID.String(),
			OwnerID:  shop.OwnerID,
			Name:     shop.DisplayName(),
			Currency: shop.GetMetadata().Currency,
			Client:   client,
		})
	}
	return targets
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
