package providers

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ShopCredentials carries what a data source needs to build a client for a
// shop.
type ShopCredentials struct {
	ID             string
	Name           string
	URL            string
	ConsumerKey    string
	ConsumerSecret string
	Currency       string
}

func (c ShopCredentials) fingerprint() string {
	return c.URL + "\x00" + c.ConsumerKey + "\x00" + c.ConsumerSecret
}

// Builder creates a ShopClient for one shop.
type Builder func(creds ShopCredentials) (ShopClient, error)

// ClientFactory builds shop clients through the configured data source and
// keeps one client per shop, so rate limiters and connection pools are
// shared across requests.
type ClientFactory struct {
	source  string
	build   Builder
	logger  *zap.Logger
	mu      sync.Mutex
	clients map[string]cachedClient
}

type cachedClient struct {
	client      ShopClient
	fingerprint string
}

// FactoryConfig holds configuration for the client factory.
type FactoryConfig struct {
	Source  string
	Builder Builder
	Logger  *zap.Logger
}

// NewClientFactory creates a new client factory.
func NewClientFactory(cfg *FactoryConfig) *ClientFactory {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ClientFactory{
		source:  cfg.Source,
		build:   cfg.Builder,
		logger:  logger,
		clients: make(map[string]cachedClient),
	}
}

// Source returns the data source name the factory builds for.
func (f *ClientFactory) Source() string {
	return f.source
}

// ClientFor returns the cached client for the shop, rebuilding it when the
// shop's URL or credentials changed since it was built.
func (f *ClientFactory) ClientFor(creds ShopCredentials) (ShopClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp := creds.fingerprint()
	if cached, ok := f.clients[creds.ID]; ok && cached.fingerprint == fp {
		return cached.client, nil
	}

	client, err := f.build(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for shop %s: %w", creds.ID, err)
	}
	f.clients[creds.ID] = cachedClient{client: client, fingerprint: fp}

	f.logger.Debug("shop client created",
		zap.String("shop_id", creds.ID),
		zap.String("source", f.source),
	)
	return client, nil
}

// NewUncached builds a throwaway client, for connection tests of shops that
// are not stored yet.
func (f *ClientFactory) NewUncached(creds ShopCredentials) (ShopClient, error) {
	return f.build(creds)
}

// Forget drops the cached client of a shop.
func (f *ClientFactory) Forget(shopID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, shopID)
}
