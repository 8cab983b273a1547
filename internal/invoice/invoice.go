// Package invoice renders printable invoices for an order through pluggable
// format backends.
package invoice

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/niaga-platform/service-wooadmin/internal/providers"
)

// ErrUnsupportedFormat is returned for formats without a registered backend.
var ErrUnsupportedFormat = errors.New("unsupported invoice format")

// Company is the seller block printed on the invoice.
type Company struct {
	Name     string
	Address  string
	Email    string
	LogoURL  string
	Currency string
	Symbol   string
}

// Document is everything a backend needs to render one invoice.
type Document struct {
	Company     Company
	Order       providers.Order
	PaymentName string
	IssuedAt    time.Time
}

// Renderer writes a Document in one output format.
type Renderer interface {
	Format() string
	ContentType() string
	Render(w io.Writer, doc Document) error
}

// Registry selects a Renderer by format name.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates a registry holding renderers.
func NewRegistry(renderers ...Renderer) *Registry {
	r := &Registry{renderers: make(map[string]Renderer)}
	for _, rd := range renderers {
		r.Register(rd)
	}
	return r
}

// Register adds or replaces the backend for rd.Format().
func (r *Registry) Register(rd Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[strings.ToLower(rd.Format())] = rd
}

// Get returns the backend for format.
func (r *Registry) Get(format string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.renderers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return rd, nil
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.renderers))
	for f := range r.renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// FormatMoney prints a decimal string with the currency symbol, or the
// currency code when no symbol is known.
func FormatMoney(amount string, c Company) string {
	value := fmt.Sprintf("%.2f", providers.ParseDecimal(amount))
	switch {
	case c.Symbol != "":
		return c.Symbol + value
	case c.Currency != "":
		return c.Currency + " " + value
	default:
		return value
	}
}
