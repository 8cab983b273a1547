package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/middleware"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

// StatsHandler serves cross-store statistics
type StatsHandler struct {
	aggregator *services.StatsAggregator
	logger     *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(aggregator *services.StatsAggregator, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		aggregator: aggregator,
		logger:     logger,
	}
}

func statsRequest(c *gin.Context) (services.StatsRequest, error) {
	from, err := parseDate(c.Query("from"))
	if err != nil {
		return services.StatsRequest{}, err
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return services.StatsRequest{}, err
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	return services.StatsRequest{
		OwnerID: middleware.OwnerID(c),
		ShopIDs: listParam(c, "shop_ids"),
		Range:   services.NormalizeRange(providers.DateRange{From: from, To: to}, time.Now()),
		Refresh: refresh,
	}, nil
}

// GetStats returns per-shop and aggregate statistics
// GET /api/v1/admin/stats?from=&to=&shop_ids=&refresh=
func (h *StatsHandler) GetStats(c *gin.Context) {
	req, err := statsRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.aggregator.Compute(c.Request.Context(), req, nil)
	if err != nil {
		respondError(c, h.logger, "Failed to compute stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"range": req.Range,
		"stats": stats,
	})
}

// StreamStats sends a "shop" event as each shop resolves, then a "done"
// event with the final aggregate.
// GET /api/v1/admin/stats/stream
func (h *StatsHandler) StreamStats(c *gin.Context) {
	req, err := statsRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	stats, err := h.aggregator.Compute(c.Request.Context(), req, func(shop providers.ShopStats, aggregate providers.StoreStats) {
		c.SSEvent("shop", gin.H{"shop": shop, "aggregate": aggregate})
		c.Writer.Flush()
	})
	if err != nil {
		c.SSEvent("error", gin.H{"error": err.Error()})
		c.Writer.Flush()
		return
	}
	c.SSEvent("done", gin.H{"range": req.Range, "stats": stats})
	c.Writer.Flush()
}
