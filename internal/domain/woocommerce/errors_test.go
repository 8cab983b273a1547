package woocommerce

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		target error
		want   bool
	}{
		{"401 is unauthorized", NewAPIError(CodeAuthError, "bad key", http.StatusUnauthorized), ErrUnauthorized, true},
		{"cannot view code is unauthorized", NewAPIError(CodeCannotView, "nope", http.StatusForbidden), ErrUnauthorized, true},
		{"404 is not found", NewAPIError(CodeInvalidOrderID, "invalid id", http.StatusNotFound), ErrResourceNotFound, true},
		{"429 is rate limited", NewAPIError(CodeHTTPError, "slow down", http.StatusTooManyRequests), ErrRateLimited, true},
		{"400 is invalid request", NewAPIError(CodeInvalidParam, "bad status", http.StatusBadRequest), ErrInvalidRequest, true},
		{"503 is unavailable", NewAPIError(CodeHTTPError, "down", http.StatusServiceUnavailable), ErrServiceUnavailable, true},
		{"404 is not unauthorized", NewAPIError(CodeNoRoute, "no route", http.StatusNotFound), ErrUnauthorized, false},
		{"api error is never network", NewAPIError(CodeHTTPError, "down", http.StatusBadGateway), ErrNetworkUnreachable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestAPIError_IsRetryable(t *testing.T) {
	assert.True(t, NewAPIError(CodeHTTPError, "", http.StatusTooManyRequests).IsRetryable())
	assert.True(t, NewAPIError(CodeHTTPError, "", http.StatusInternalServerError).IsRetryable())
	assert.False(t, NewAPIError(CodeAuthError, "", http.StatusUnauthorized).IsRetryable())
	assert.False(t, NewAPIError(CodeInvalidOrderID, "", http.StatusNotFound).IsRetryable())
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("list orders: %w", &NetworkError{URL: "https://shop.test/wp-json/wc/v3/orders?page=1", Err: cause})

	assert.ErrorIs(t, err, ErrNetworkUnreachable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotContains(t, err.Error(), "page=1")
	assert.Contains(t, err.Error(), "https://shop.test/wp-json/wc/v3/orders")
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, CategoryNetwork, Categorize(&NetworkError{URL: "x", Err: errors.New("timeout")}))
	assert.Equal(t, CategoryAuthentication, Categorize(NewAPIError(CodeAuthError, "", http.StatusUnauthorized)))
	assert.Equal(t, CategoryRateLimit, Categorize(NewAPIError(CodeHTTPError, "", http.StatusTooManyRequests)))
	assert.Equal(t, CategoryNotFound, Categorize(NewAPIError(CodeInvalidOrderID, "", http.StatusNotFound)))
	assert.Equal(t, CategoryValidation, Categorize(NewAPIError(CodeInvalidParam, "", http.StatusBadRequest)))
	assert.Equal(t, CategoryServer, Categorize(NewAPIError(CodeHTTPError, "", http.StatusBadGateway)))
	assert.Equal(t, CategoryUnknown, Categorize(errors.New("boom")))
	assert.Equal(t, CategoryUnknown, Categorize(nil))
}
