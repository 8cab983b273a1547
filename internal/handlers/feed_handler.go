package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/middleware"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

// FeedHandler serves the merged cross-shop order feed
type FeedHandler struct {
	service *services.FeedService
	logger  *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(service *services.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		service: service,
		logger:  logger,
	}
}

// FeedFiltersRequest is the body of POST /feeds and PUT /feeds/:id/filters.
// Dates are YYYY-MM-DD or RFC3339.
type FeedFiltersRequest struct {
	ShopIDs  []string `json:"shop_ids"`
	Statuses []string `json:"statuses"`
	Search   string   `json:"search"`
	DateFrom string   `json:"date_from"`
	DateTo   string   `json:"date_to"`
}

func (r FeedFiltersRequest) toFilters() (services.FeedFilters, error) {
	from, err := parseDate(r.DateFrom)
	if err != nil {
		return services.FeedFilters{}, err
	}
	to, err := parseDate(r.DateTo)
	if err != nil {
		return services.FeedFilters{}, err
	}

	f := services.FeedFilters{
		ShopIDs: r.ShopIDs,
		Search:  r.Search,
	}
	if !from.IsZero() {
		f.From = providers.StartOfDay(from)
	}
	if !to.IsZero() {
		f.To = providers.EndOfDay(to)
	}
	for _, s := range r.Statuses {
		st := providers.OrderStatus(s)
		if !st.Valid() {
			return f, services.ErrInvalidStatus
		}
		f.Statuses = append(f.Statuses, st)
	}
	return f, nil
}

func feedID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feed ID"})
		return uuid.Nil, false
	}
	return id, true
}

func bindFeedFilters(c *gin.Context) (services.FeedFilters, bool) {
	var req FeedFiltersRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return services.FeedFilters{}, false
		}
	}
	filters, err := req.toFilters()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return services.FeedFilters{}, false
	}
	return filters, true
}

// CreateFeed opens a feed session and loads its first window
// POST /api/v1/admin/feeds
func (h *FeedHandler) CreateFeed(c *gin.Context) {
	filters, ok := bindFeedFilters(c)
	if !ok {
		return
	}
	snap, err := h.service.Create(c.Request.Context(), middleware.OwnerID(c), filters)
	if err != nil {
		respondError(c, h.logger, "Failed to create feed", err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

// GetFeed returns the feed's current state without fetching
// GET /api/v1/admin/feeds/:id
func (h *FeedHandler) GetFeed(c *gin.Context) {
	id, ok := feedID(c)
	if !ok {
		return
	}
	snap, err := h.service.Get(middleware.OwnerID(c), id)
	if err != nil {
		respondError(c, h.logger, "Failed to get feed", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// LoadMore slides the window back and merges the next batch
// POST /api/v1/admin/feeds/:id/more
func (h *FeedHandler) LoadMore(c *gin.Context) {
	id, ok := feedID(c)
	if !ok {
		return
	}
	start := time.Now()
	snap, err := h.service.LoadMore(c.Request.Context(), middleware.OwnerID(c), id)
	if err != nil {
		respondError(c, h.logger, "Failed to load more orders", err)
		return
	}
	h.logger.Debug("feed window loaded",
		zap.String("feed_id", id.String()),
		zap.Int("orders", len(snap.Orders)),
		zap.Duration("took", time.Since(start)),
	)
	c.JSON(http.StatusOK, snap)
}

// SetFilters resets the feed with new filters
// PUT /api/v1/admin/feeds/:id/filters
func (h *FeedHandler) SetFilters(c *gin.Context) {
	id, ok := feedID(c)
	if !ok {
		return
	}
	filters, ok := bindFeedFilters(c)
	if !ok {
		return
	}
	snap, err := h.service.SetFilters(c.Request.Context(), middleware.OwnerID(c), id, filters)
	if err != nil {
		respondError(c, h.logger, "Failed to set feed filters", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// DeleteFeed closes a feed session
// DELETE /api/v1/admin/feeds/:id
func (h *FeedHandler) DeleteFeed(c *gin.Context) {
	id, ok := feedID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(middleware.OwnerID(c), id); err != nil {
		respondError(c, h.logger, "Failed to delete feed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
