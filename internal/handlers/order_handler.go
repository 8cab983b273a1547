package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/invoice"
	"github.com/niaga-platform/service-wooadmin/internal/middleware"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

// OrderHandler handles per-shop order API requests
type OrderHandler struct {
	service  *services.OrderService
	invoices *invoice.Registry
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *services.OrderService, invoices *invoice.Registry, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		invoices: invoices,
		logger:   logger,
	}
}

// UpdateStatusRequest is the body of PUT .../orders/:order_id/status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func orderID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("order_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return 0, false
	}
	return id, true
}

// orderFilters reads status, date_from, date_to, search, sort_by and sort_order.
func orderFilters(c *gin.Context) (providers.OrderFilters, error) {
	var f providers.OrderFilters
	for _, s := range listParam(c, "status") {
		f.Statuses = append(f.Statuses, providers.OrderStatus(s))
	}

	from, err := parseDate(c.Query("date_from"))
	if err != nil {
		return f, fmt.Errorf("invalid date_from: %w", err)
	}
	to, err := parseDate(c.Query("date_to"))
	if err != nil {
		return f, fmt.Errorf("invalid date_to: %w", err)
	}
	if !from.IsZero() {
		f.DateFrom = providers.StartOfDay(from)
	}
	if !to.IsZero() {
		f.DateTo = providers.EndOfDay(to)
	}

	f.Search = c.Query("search")
	f.SortBy = c.DefaultQuery("sort_by", providers.SortByDate)
	f.SortOrder = c.DefaultQuery("sort_order", "desc")
	return f, nil
}

// ListOrders lists one page of a shop's orders
// GET /api/v1/admin/shops/:id/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	filters, err := orderFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page := providers.Pagination{Page: 1, Limit: 20}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		page.Page = v
	}
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 {
		page.Limit = v
	}
	page = page.Normalize()

	result, err := h.service.ListOrders(c.Request.Context(), middleware.OwnerID(c), id, filters, page)
	if err != nil {
		respondError(c, h.logger, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders":      result.Orders,
		"total":       result.Total,
		"total_pages": result.TotalPages,
		"page":        page.Page,
		"per_page":    page.Limit,
	})
}

// GetOrder returns one order
// GET /api/v1/admin/shops/:id/orders/:order_id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	oid, ok := orderID(c)
	if !ok {
		return
	}

	_, order, err := h.service.GetOrder(c.Request.Context(), middleware.OwnerID(c), id, oid)
	if err != nil {
		respondError(c, h.logger, "Failed to get order", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateStatus changes an order's status
// PUT /api/v1/admin/shops/:id/orders/:order_id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	oid, ok := orderID(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.UpdateStatus(c.Request.Context(), middleware.OwnerID(c), id, oid, providers.OrderStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, "Failed to update order status", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Invoice renders a printable invoice
// GET /api/v1/admin/shops/:id/orders/:order_id/invoice?format=html
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	oid, ok := orderID(c)
	if !ok {
		return
	}
	renderer, err := h.invoices.Get(c.DefaultQuery("format", invoice.FormatHTML))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "formats": h.invoices.Formats()})
		return
	}

	ctx := c.Request.Context()
	owner := middleware.OwnerID(c)
	shop, order, err := h.service.GetOrder(ctx, owner, id, oid)
	if err != nil {
		respondError(c, h.logger, "Failed to get order for invoice", err)
		return
	}

	// Gateways only refine the payment label.
	gateways, err := h.service.PaymentGateways(ctx, owner, id)
	if err != nil {
		h.logger.Warn("Failed to load payment gateways", zap.String("shop_id", id.String()), zap.Error(err))
	}

	var buf bytes.Buffer
	doc := invoice.NewDocument(shop, *order, gateways, time.Now())
	if err := renderer.Render(&buf, doc); err != nil {
		respondError(c, h.logger, "Failed to render invoice", err)
		return
	}
	c.Data(http.StatusOK, renderer.ContentType(), buf.Bytes())
}

// Report returns the shop's top sellers for a range and its order totals
// GET /api/v1/admin/shops/:id/reports?from=&to=
func (h *OrderHandler) Report(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
		return
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
		return
	}

	r := services.NormalizeRange(providers.DateRange{From: from, To: to}, time.Now())
	report, err := h.service.Report(c.Request.Context(), middleware.OwnerID(c), id, r)
	if err != nil {
		respondError(c, h.logger, "Failed to get shop report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
