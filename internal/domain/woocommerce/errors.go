// Package woocommerce provides domain types for the WooCommerce REST integration.
package woocommerce

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Sentinels matched by APIError.Is and NetworkError.Is.
var (
	ErrNetworkUnreachable = errors.New("store unreachable")
	ErrUnauthorized       = errors.New("store rejected the API credentials")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrRateLimited        = errors.New("store rate limit exceeded")
	ErrInvalidRequest     = errors.New("invalid request parameters")
	ErrServiceUnavailable = errors.New("store temporarily unavailable")
)

// ErrorCode is the "code" field of a WooCommerce REST error body.
type ErrorCode string

// Error codes returned by WordPress / WooCommerce REST endpoints.
const (
	CodeAuthError       ErrorCode = "woocommerce_rest_authentication_error"
	CodeCannotView      ErrorCode = "woocommerce_rest_cannot_view"
	CodeCannotEdit      ErrorCode = "woocommerce_rest_cannot_edit"
	CodeInvalidOrderID  ErrorCode = "woocommerce_rest_shop_order_invalid_id"
	CodeInvalidParam    ErrorCode = "rest_invalid_param"
	CodeNoRoute         ErrorCode = "rest_no_route"
	CodeForbidden       ErrorCode = "rest_forbidden"
	CodeHTTPError       ErrorCode = "http_error"
	CodeInvalidResponse ErrorCode = "invalid_response"
)

func (c ErrorCode) String() string {
	return string(c)
}

// APIError is a non-2xx response from a store.
type APIError struct {
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	StatusCode int           `json:"-"`
	// RetryAfter is the wait the store asked for on 429/503, if any.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("woocommerce [%s]: %s (status %d)", e.Code, e.Message, e.StatusCode)
}

// Is maps status codes and REST error codes onto the sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden ||
			e.Code == CodeAuthError || e.Code == CodeCannotView || e.Code == CodeForbidden
	case ErrResourceNotFound:
		return e.StatusCode == http.StatusNotFound || e.Code == CodeInvalidOrderID
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrInvalidRequest:
		return e.StatusCode == http.StatusBadRequest || e.Code == CodeInvalidParam
	case ErrServiceUnavailable:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// IsRetryable reports throttling and server-side failures.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// NewAPIError builds an APIError.
func NewAPIError(code ErrorCode, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NetworkError is a transport-level failure: DNS, refused connection,
// TLS or timeout. The store never answered.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: could not reach %s: %v", redactQuery(e.URL), e.Err)
}

// Unwrap exposes the transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports ErrNetworkUnreachable.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetworkUnreachable
}

// IsRetryable is always true for transport failures.
func (e *NetworkError) IsRetryable() bool {
	return true
}

func redactQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}

// ErrorCategory is the coarse error class reported to API callers.
type ErrorCategory string

const (
	CategoryNetwork        ErrorCategory = "network"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryServer         ErrorCategory = "server"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryValidation     ErrorCategory = "validation"
	CategoryUnknown        ErrorCategory = "unknown"
)

// Categorize returns the category of any error produced by the client.
func Categorize(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrNetworkUnreachable):
		return CategoryNetwork
	case errors.Is(err, ErrUnauthorized):
		return CategoryAuthentication
	case errors.Is(err, ErrRateLimited):
		return CategoryRateLimit
	case errors.Is(err, ErrResourceNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrInvalidRequest):
		return CategoryValidation
	case errors.Is(err, ErrServiceUnavailable):
		return CategoryServer
	default:
		return CategoryUnknown
	}
}
