package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// Shop is a connected WooCommerce store owned by an operator.
type Shop struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        string         `gorm:"type:varchar(64);not null;index" json:"owner_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	URL            string         `gorm:"type:varchar(512);not null" json:"url"`
	ConsumerKey    string         `gorm:"type:varchar(255);not null" json:"-"`
	ConsumerSecret string         `gorm:"type:varchar(255);not null" json:"-"`
	IsActive       bool           `gorm:"not null" json:"is_active"`
	LogoURL        *string        `gorm:"type:text" json:"logo_url,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName returns the table name for Shop.
func (Shop) TableName() string {
	return "shops"
}

// BeforeCreate assigns an id to new shops.
func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ShopMetadata is store metadata resolved once when the shop is connected.
type ShopMetadata struct {
	StoreName      string `json:"store_name,omitempty"`
	Address        string `json:"address,omitempty"`
	Email          string `json:"email,omitempty"`
	Currency       string `json:"currency,omitempty"`
	CurrencySymbol string `json:"currency_symbol,omitempty"`
	Version        string `json:"version,omitempty"`
}

// GetMetadata decodes the metadata column. A missing or corrupt column
// yields the zero value.
func (s *Shop) GetMetadata() ShopMetadata {
	var m ShopMetadata
	if len(s.Metadata) == 0 {
		return m
	}
	_ = json.Unmarshal(s.Metadata, &m)
	return m
}

// SetMetadata encodes m into the metadata column.
func (s *Shop) SetMetadata(m ShopMetadata) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	s.Metadata = datatypes.JSON(data)
	return nil
}

// DisplayName prefers the store's own name over the operator's label.
func (s *Shop) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.GetMetadata().StoreName
}

// Credentials returns what a data source needs to build a client.
func (s *Shop) Credentials() providers.ShopCredentials {
	return providers.ShopCredentials{
		ID:             s.ID.String(),
		Name:           s.Name,
		URL:            s.URL,
		ConsumerKey:    s.ConsumerKey,
		ConsumerSecret: s.ConsumerSecret,
		Currency:       s.GetMetadata().Currency,
	}
}
