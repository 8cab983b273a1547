package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	wcdomain "github.com/niaga-platform/service-wooadmin/internal/domain/woocommerce"
	"github.com/niaga-platform/service-wooadmin/internal/invoice"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"shop not found", services.ErrShopNotFound, http.StatusNotFound},
		{"feed not found", fmt.Errorf("lookup: %w", services.ErrFeedNotFound), http.StatusNotFound},
		{"no active shops", services.ErrNoActiveShops, http.StatusNotFound},
		{"invalid status", services.ErrInvalidStatus, http.StatusBadRequest},
		{"unsupported format", invoice.ErrUnsupportedFormat, http.StatusBadRequest},
		{"unreachable store", fmt.Errorf("%w: %w", services.ErrConnectionFailed, wcdomain.ErrNetworkUnreachable), http.StatusUnprocessableEntity},
		{"rate limited", wcdomain.ErrRateLimited, http.StatusTooManyRequests},
		{"upstream rejected", wcdomain.ErrUnauthorized, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
