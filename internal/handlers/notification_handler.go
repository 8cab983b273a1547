package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/middleware"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

const streamHeartbeat = 25 * time.Second

// NotificationHandler serves new-order alert settings and streams
type NotificationHandler struct {
	poller *services.NotificationPoller
	hub    *services.NotificationHub
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(poller *services.NotificationPoller, hub *services.NotificationHub, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		poller: poller,
		hub:    hub,
		logger: logger,
	}
}

// SettingsResponse exposes the poll interval in seconds.
type SettingsResponse struct {
	Enabled         bool `json:"enabled"`
	IntervalSeconds int  `json:"interval_seconds"`
	Sound           bool `json:"sound"`
	ShowDetails     bool `json:"show_details"`
	RecentLimit     int  `json:"recent_limit"`
}

// UpdateSettingsRequest changes the non-null fields.
type UpdateSettingsRequest struct {
	Enabled         *bool `json:"enabled"`
	IntervalSeconds *int  `json:"interval_seconds"`
	Sound           *bool `json:"sound"`
	ShowDetails     *bool `json:"show_details"`
	RecentLimit     *int  `json:"recent_limit"`
}

func settingsResponse(s services.NotificationSettings) SettingsResponse {
	return SettingsResponse{
		Enabled:         s.Enabled,
		IntervalSeconds: int(s.Interval / time.Second),
		Sound:           s.Sound,
		ShowDetails:     s.ShowDetails,
		RecentLimit:     s.RecentLimit,
	}
}

// GetSettings returns the alert settings
// GET /api/v1/admin/notifications/settings
func (h *NotificationHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, settingsResponse(h.poller.Settings()))
}

// UpdateSettings changes the alert settings and restarts the poll timer
// PUT /api/v1/admin/notifications/settings
func (h *NotificationHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s := h.poller.Settings()
	if req.Enabled != nil {
		s.Enabled = *req.Enabled
	}
	if req.IntervalSeconds != nil {
		s.Interval = time.Duration(*req.IntervalSeconds) * time.Second
	}
	if req.Sound != nil {
		s.Sound = *req.Sound
	}
	if req.ShowDetails != nil {
		s.ShowDetails = *req.ShowDetails
	}
	if req.RecentLimit != nil {
		s.RecentLimit = *req.RecentLimit
	}

	saved, err := h.poller.UpdateSettings(c.Request.Context(), s)
	if err != nil {
		respondError(c, h.logger, "Failed to update notification settings", err)
		return
	}
	c.JSON(http.StatusOK, settingsResponse(saved))
}

// ResetSeen forgets seen orders of one of the operator's shops, or of all of
// them
// DELETE /api/v1/admin/notifications/seen
// DELETE /api/v1/admin/notifications/seen/:shop_id
func (h *NotificationHandler) ResetSeen(c *gin.Context) {
	if err := h.poller.ResetSeen(c.Request.Context(), middleware.OwnerID(c), c.Param("shop_id")); err != nil {
		respondError(c, h.logger, "Failed to reset seen orders", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stream pushes a "new_orders" event for every batch of the operator's new
// orders, with periodic heartbeats.
// GET /api/v1/admin/notifications/stream
func (h *NotificationHandler) Stream(c *gin.Context) {
	owner := middleware.OwnerID(c)
	batches, cancel := h.hub.Subscribe(owner)
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	h.logger.Debug("notification stream opened", zap.String("owner_id", owner))
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case batch, ok := <-batches:
			if !ok {
				return false
			}
			c.SSEvent("new_orders", batch)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	h.logger.Debug("notification stream closed", zap.String("owner_id", owner))
}
