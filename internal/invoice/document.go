package invoice

import (
	"time"

	"github.com/niaga-platform/service-wooadmin/internal/models"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// NewDocument builds an invoice from the shop's stored metadata. The
// payment label prefers the order's own title, then the gateway title.
func NewDocument(shop *models.Shop, order providers.Order, gateways []providers.PaymentGateway, issuedAt time.Time) Document {
	meta := shop.GetMetadata()

	company := Company{
		Name:     meta.StoreName,
		Address:  meta.Address,
		Email:    meta.Email,
		Currency: order.Currency,
		Symbol:   meta.CurrencySymbol,
	}
	if company.Name == "" {
		company.Name = shop.Name
	}
	if company.Currency == "" {
		company.Currency = meta.Currency
	}
	if company.Currency != meta.Currency {
		company.Symbol = ""
	}
	if shop.LogoURL != nil {
		company.LogoURL = *shop.LogoURL
	}

	payment := order.PaymentMethodTitle
	if payment == "" {
		for _, g := range gateways {
			if g.ID == order.PaymentMethod {
				payment = g.Title
				break
			}
		}
	}
	if payment == "" {
		payment = order.PaymentMethod
	}

	return Document{
		Company:     company,
		Order:       order,
		PaymentName: payment,
		IssuedAt:    issuedAt,
	}
}
