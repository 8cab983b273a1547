package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	wcdomain "github.com/niaga-platform/service-wooadmin/internal/domain/woocommerce"
	"github.com/niaga-platform/service-wooadmin/internal/invoice"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

// statusFor maps service and upstream errors to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrShopNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrFeedNotFound),
		errors.Is(err, services.ErrNoActiveShops):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidShop),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, invoice.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrConnectionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wcdomain.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, wcdomain.ErrRateLimited):
		return http.StatusTooManyRequests
	case wcdomain.Categorize(err) != wcdomain.CategoryUnknown:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ...} and, for a failed connection test, the
// category telling an unreachable store apart from rejected credentials.
func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}
	if errors.Is(err, services.ErrConnectionFailed) || status == http.StatusBadGateway {
		body["category"] = wcdomain.Categorize(err)
	}

	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		} else {
			sentry.CaptureException(err)
		}
	} else {
		logger.Debug(msg, zap.Error(err))
	}
	c.JSON(status, body)
}

// parseDate accepts YYYY-MM-DD or RFC3339. Empty input yields the zero time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// listParam reads a query parameter given either repeated or comma separated.
func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
