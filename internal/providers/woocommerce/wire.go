package woocommerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// wcTimeLayout is the timestamp format of WooCommerce date fields. The
// *_gmt variants are UTC; the plain variants are store-local.
const wcTimeLayout = "2006-01-02T15:04:05"

// flexString decodes a JSON string, number or bool as text. WooCommerce
// returns some fields with a type that depends on the plugin mix installed.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(b)
	return nil
}

// flexFloat decodes either a JSON number or a numeric string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

type wcAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type wcMetaData struct {
	Key   string     `json:"key"`
	Value flexString `json:"value"`
}

type wcLineItem struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	ProductID int64        `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Price     flexString   `json:"price"`
	Subtotal  string       `json:"subtotal"`
	Total     string       `json:"total"`
	SKU       string       `json:"sku"`
	MetaData  []wcMetaData `json:"meta_data"`
}

type wcOrder struct {
	ID                 int64        `json:"id"`
	Number             string       `json:"number"`
	Status             string       `json:"status"`
	Currency           string       `json:"currency"`
	DateCreated        string       `json:"date_created"`
	DateCreatedGMT     string       `json:"date_created_gmt"`
	DateModified       string       `json:"date_modified"`
	DateModifiedGMT    string       `json:"date_modified_gmt"`
	DiscountTotal      string       `json:"discount_total"`
	ShippingTotal      string       `json:"shipping_total"`
	TotalTax           string       `json:"total_tax"`
	Total              string       `json:"total"`
	Billing            wcAddress    `json:"billing"`
	Shipping           wcAddress    `json:"shipping"`
	PaymentMethod      string       `json:"payment_method"`
	PaymentMethodTitle string       `json:"payment_method_title"`
	CustomerNote       string       `json:"customer_note"`
	LineItems          []wcLineItem `json:"line_items"`
}

func (o *wcOrder) toOrder(shopID string) providers.Order {
	items := make([]providers.LineItem, 0, len(o.LineItems))
	subtotals := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		meta := make([]providers.MetaData, 0, len(li.MetaData))
		for _, m := range li.MetaData {
			if strings.HasPrefix(m.Key, "_") {
				continue
			}
			meta = append(meta, providers.MetaData{Key: m.Key, Value: string(m.Value)})
		}
		items = append(items, providers.LineItem{
			ID:        li.ID,
			Name:      li.Name,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Price:     string(li.Price),
			Subtotal:  li.Subtotal,
			Total:     li.Total,
			SKU:       li.SKU,
			MetaData:  meta,
		})
		subtotals = append(subtotals, li.Subtotal)
	}

	number := o.Number
	if number == "" {
		number = strconv.FormatInt(o.ID, 10)
	}

	return providers.Order{
		ID:                 o.ID,
		ShopID:             shopID,
		Number:             number,
		Status:             providers.OrderStatus(o.Status),
		Currency:           o.Currency,
		Subtotal:           sumDecimals(subtotals),
		ShippingTotal:      o.ShippingTotal,
		TaxTotal:           o.TotalTax,
		DiscountTotal:      o.DiscountTotal,
		Total:              o.Total,
		DateCreated:        parseWCTime(o.DateCreatedGMT, o.DateCreated),
		DateModified:       parseWCTime(o.DateModifiedGMT, o.DateModified),
		Billing:            providers.Address(o.Billing),
		Shipping:           toShippingAddress(o.Shipping),
		LineItems:          items,
		PaymentMethod:      o.PaymentMethod,
		PaymentMethodTitle: o.PaymentMethodTitle,
		CustomerNote:       o.CustomerNote,
	}
}

func toShippingAddress(a wcAddress) providers.Address {
	out := providers.Address(a)
	out.Email = ""
	return out
}

// parseWCTime prefers the GMT field and falls back to the store-local one.
// Unparseable or missing values yield the zero time.
func parseWCTime(gmt, local string) time.Time {
	if t, err := time.ParseInLocation(wcTimeLayout, gmt, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, local); err == nil {
		return t.UTC()
	}
	if t, err := time.ParseInLocation(wcTimeLayout, local, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}

// sumDecimals adds decimal strings, returning a two-place result.
func sumDecimals(values []string) string {
	var cents int64
	for _, v := range values {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		if f < 0 {
			cents += int64(f*100 - 0.5)
		} else {
			cents += int64(f*100 + 0.5)
		}
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + strconv.FormatInt(cents/100, 10) + "." + leftPad2(cents%100)
}

func leftPad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}
