// Package demo serves a generated in-memory dataset through the same
// ShopClient interface as the WooCommerce adapter, so the dashboard runs
// without any store credentials.
package demo

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/niaga-platform/service-wooadmin/internal/models"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// DefaultSeed keeps the demo data identical across restarts.
const DefaultSeed int64 = 20240105

// Shop describes one generated demo store.
type Shop struct {
	ID       string
	Name     string
	URL      string
	Currency string
	Address  string
	Email    string
}

var defaultShops = []struct {
	name     string
	url      string
	currency string
}{
	{"Batik Kelantan", "https://batik-kelantan.demo.test", "MYR"},
	{"Songket Heritage", "https://songket-heritage.demo.test", "MYR"},
	{"Nusantara Crafts", "https://nusantara-crafts.demo.test", "SGD"},
}

var demoGateways = []providers.PaymentGateway{
	{ID: "bacs", Title: "Direct bank transfer", Enabled: true},
	{ID: "cod", Title: "Cash on delivery", Enabled: true},
	{ID: "stripe", Title: "Credit card (Stripe)", Enabled: true},
}

// Dataset owns the generated stores. Stores for shops outside the default
// set are generated on first use.
type Dataset struct {
	mu     sync.Mutex
	seed   int64
	now    func() time.Time
	days   int
	stores map[string]*store
	shops  []Shop
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithClock fixes the reference time orders are generated back from.
func WithClock(now func() time.Time) Option {
	return func(d *Dataset) { d.now = now }
}

// WithHistoryDays sets how many days of orders each store gets.
func WithHistoryDays(days int) Option {
	return func(d *Dataset) { d.days = days }
}

// NewDataset generates the default demo shops from seed.
func NewDataset(seed int64, opts ...Option) *Dataset {
	d := &Dataset{
		seed:   seed,
		now:    time.Now,
		days:   90,
		stores: make(map[string]*store),
	}
	for _, opt := range opts {
		opt(d)
	}

	for i, s := range defaultShops {
		faker := gofakeit.New(seed + int64(i))
		shop := Shop{
			ID:       ShopIDForURL(s.url).String(),
			Name:     s.name,
			URL:      s.url,
			Currency: s.currency,
			Address:  fmt.Sprintf("%s, %s %s", faker.Street(), faker.City(), faker.Zip()),
			Email:    "orders@" + s.url[len("https://"):],
		}
		d.shops = append(d.shops, shop)
		d.stores[shop.ID] = d.generate(faker, shop)
	}
	return d
}

// ShopIDForURL derives a stable shop id from a store URL.
func ShopIDForURL(storeURL string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(storeURL))
}

// Shops returns the default demo shops.
func (d *Dataset) Shops() []Shop {
	out := make([]Shop, len(d.shops))
	copy(out, d.shops)
	return out
}

// ShopRecords returns the default shops as stored shop records owned by
// ownerID, with their store metadata filled in.
func (d *Dataset) ShopRecords(ownerID string) ([]models.Shop, error) {
	out := make([]models.Shop, 0, len(d.shops))
	for _, s := range d.shops {
		shop := models.Shop{
			ID:             uuid.MustParse(s.ID),
			OwnerID:        ownerID,
			Name:           s.Name,
			URL:            s.URL,
			ConsumerKey:    "ck_demo",
			ConsumerSecret: "cs_demo",
			IsActive:       true,
		}
		if err := shop.SetMetadata(models.ShopMetadata{
			StoreName: s.Name,
			Address:   s.Address,
			Email:     s.Email,
			Currency:  s.Currency,
		}); err != nil {
			return nil, err
		}
		out = append(out, shop)
	}
	return out, nil
}

// Client returns the ShopClient for a shop, generating its store when the
// shop is not one of the defaults.
func (d *Dataset) Client(shopID, name, currency string) providers.ShopClient {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.stores[shopID]
	if !ok {
		h := fnv.New64a()
		_, _ = h.Write([]byte(shopID))
		if currency == "" {
			currency = "MYR"
		}
		st = d.generate(gofakeit.New(d.seed^int64(h.Sum64())), Shop{ID: shopID, Name: name, Currency: currency})
		d.stores[shopID] = st
	}
	return &Client{store: st}
}

// AddOrder appends a freshly generated order to a shop's store and returns
// it. Used to simulate incoming orders.
func (d *Dataset) AddOrder(shopID string) (*providers.Order, error) {
	d.mu.Lock()
	st, ok := d.stores[shopID]
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown demo shop %s", shopID)
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	order := st.newOrder(d.now(), providers.StatusProcessing)
	st.orders = append(st.orders, order)
	return &order, nil
}

func (d *Dataset) generate(faker *gofakeit.Faker, shop Shop) *store {
	st := &store{
		shop:   shop,
		faker:  faker,
		nextID: 1000,
	}

	end := d.now()
	start := end.AddDate(0, 0, -d.days)
	count := faker.Number(d.days, d.days*3)
	statuses := []string{
		"completed", "completed", "completed", "processing", "processing",
		"pending", "on-hold", "cancelled", "refunded", "failed",
	}
	for i := 0; i < count; i++ {
		created := faker.DateRange(start, end)
		status := providers.OrderStatus(faker.RandomString(statuses))
		st.orders = append(st.orders, st.newOrder(created, status))
	}
	sort.SliceStable(st.orders, func(i, j int) bool {
		return st.orders[i].DateCreated.Before(st.orders[j].DateCreated)
	})
	return st
}

// store is one demo shop's order book.
type store struct {
	mu     sync.Mutex
	shop   Shop
	faker  *gofakeit.Faker
	orders []providers.Order
	nextID int64
}

func (s *store) newOrder(created time.Time, status providers.OrderStatus) providers.Order {
	f := s.faker
	s.nextID++

	billing := providers.Address{
		FirstName: f.FirstName(),
		LastName:  f.LastName(),
		Address1:  f.Street(),
		City:      f.City(),
		State:     f.State(),
		Postcode:  f.Zip(),
		Country:   "MY",
		Email:     f.Email(),
		Phone:     f.Phone(),
	}
	shipping := billing
	shipping.Email = ""
	shipping.Phone = ""

	var items []providers.LineItem
	var subtotalCents int64
	for i := 0; i < f.Number(1, 4); i++ {
		qty := f.Number(1, 3)
		unitCents := int64(f.Number(1500, 45000))
		lineCents := unitCents * int64(qty)
		subtotalCents += lineCents
		items = append(items, providers.LineItem{
			ID:        s.nextID*10 + int64(i),
			Name:      f.ProductName(),
			ProductID: int64(f.Number(100, 999)),
			Quantity:  qty,
			Price:     cents(unitCents),
			Subtotal:  cents(lineCents),
			Total:     cents(lineCents),
			SKU:       fmt.Sprintf("SKU-%04d", f.Number(1, 9999)),
			MetaData:  []providers.MetaData{},
		})
	}

	shippingCents := int64(f.RandomInt([]int{0, 800, 1000, 1500}))
	taxCents := subtotalCents * 6 / 100
	gateway := demoGateways[f.Number(0, len(demoGateways)-1)]

	return providers.Order{
		ID:                 s.nextID,
		ShopID:             s.shop.ID,
		Number:             strconv.FormatInt(s.nextID, 10),
		Status:             status,
		Currency:           s.shop.Currency,
		Subtotal:           cents(subtotalCents),
		ShippingTotal:      cents(shippingCents),
		TaxTotal:           cents(taxCents),
		DiscountTotal:      "0.00",
		Total:              cents(subtotalCents + shippingCents + taxCents),
		DateCreated:        created.UTC().Truncate(time.Second),
		DateModified:       created.UTC().Truncate(time.Second),
		Billing:            billing,
		Shipping:           shipping,
		LineItems:          items,
		PaymentMethod:      gateway.ID,
		PaymentMethodTitle: gateway.Title,
		CustomerNote:       "",
	}
}

func cents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

// Builder returns a providers.Builder backed by this dataset.
func (d *Dataset) Builder() providers.Builder {
	return func(creds providers.ShopCredentials) (providers.ShopClient, error) {
		return d.Client(creds.ID, creds.Name, creds.Currency), nil
	}
}
