package woocommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

const (
	SystemStatusPath    = "/system_status"
	GeneralSettingsPath = "/settings/general"
	EmailSettingsPath   = "/settings/email"
	PaymentGatewaysPath = "/payment_gateways"
)

// SystemProvider reads store metadata and configuration.
type SystemProvider struct {
	client *Client
	logger *zap.Logger
}

// NewSystemProvider creates a new system provider.
func NewSystemProvider(client *Client, logger *zap.Logger) *SystemProvider {
	return &SystemProvider{client: client, logger: logger}
}

type wcSystemStatus struct {
	Environment struct {
		HomeURL string `json:"home_url"`
		SiteURL string `json:"site_url"`
		Version string `json:"version"`
	} `json:"environment"`
	Settings struct {
		Currency       string `json:"currency"`
		CurrencySymbol string `json:"currency_symbol"`
	} `json:"settings"`
}

type wcSetting struct {
	ID    string     `json:"id"`
	Value flexString `json:"value"`
}

// TestConnection calls the authenticated system status endpoint once,
// without retries.
func (p *SystemProvider) TestConnection(ctx context.Context) error {
	var status wcSystemStatus
	if _, err := p.client.doRequest(ctx, &Request{
		Method: http.MethodGet,
		Path:   SystemStatusPath,
	}, &status); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// GetStoreInfo collects store metadata. The system status call is
// mandatory; the settings calls only enrich the result.
func (p *SystemProvider) GetStoreInfo(ctx context.Context) (*providers.StoreInfo, error) {
	var status wcSystemStatus
	if _, err := p.client.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   SystemStatusPath,
	}, &status); err != nil {
		return nil, fmt.Errorf("failed to get system status: %w", err)
	}

	info := &providers.StoreInfo{
		SiteURL:        status.Environment.SiteURL,
		Version:        status.Environment.Version,
		Currency:       status.Settings.Currency,
		CurrencySymbol: status.Settings.CurrencySymbol,
	}
	if info.SiteURL == "" {
		info.SiteURL = status.Environment.HomeURL
	}

	general, err := p.settings(ctx, GeneralSettingsPath)
	if err != nil {
		p.logger.Warn("failed to get general settings", zap.String("store", p.client.StoreURL()), zap.Error(err))
	} else {
		info.Address = formatStoreAddress(general)
		if info.Currency == "" {
			info.Currency = general["woocommerce_currency"]
		}
	}

	email, err := p.settings(ctx, EmailSettingsPath)
	if err != nil {
		p.logger.Warn("failed to get email settings", zap.String("store", p.client.StoreURL()), zap.Error(err))
	} else {
		info.Email = email["woocommerce_email_from_address"]
		info.StoreName = email["woocommerce_email_from_name"]
	}

	if info.StoreName == "" {
		info.StoreName = hostOf(info.SiteURL)
	}
	return info, nil
}

func (p *SystemProvider) settings(ctx context.Context, path string) (map[string]string, error) {
	var raw []wcSetting
	if _, err := p.client.Do(ctx, &Request{Method: http.MethodGet, Path: path}, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for _, s := range raw {
		out[s.ID] = string(s.Value)
	}
	return out, nil
}

func formatStoreAddress(s map[string]string) string {
	var parts []string
	for _, k := range []string{
		"woocommerce_store_address",
		"woocommerce_store_address_2",
		"woocommerce_store_city",
		"woocommerce_store_postcode",
		"woocommerce_default_country",
	} {
		if v := strings.TrimSpace(s[k]); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// GetPaymentGateways returns the enabled payment gateways.
func (p *SystemProvider) GetPaymentGateways(ctx context.Context) ([]providers.PaymentGateway, error) {
	var raw []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Enabled bool   `json:"enabled"`
	}
	if _, err := p.client.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   PaymentGatewaysPath,
	}, &raw); err != nil {
		return nil, fmt.Errorf("failed to get payment gateways: %w", err)
	}

	out := make([]providers.PaymentGateway, 0, len(raw))
	for _, g := range raw {
		if !g.Enabled {
			continue
		}
		out = append(out, providers.PaymentGateway{ID: g.ID, Title: g.Title, Enabled: true})
	}
	return out, nil
}
