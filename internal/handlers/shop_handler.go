package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niaga-platform/service-wooadmin/internal/middleware"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

// ShopHandler handles shop connection API requests
type ShopHandler struct {
	service *services.ShopService
	logger  *zap.Logger
}

// NewShopHandler creates a new ShopHandler
func NewShopHandler(service *services.ShopService, logger *zap.Logger) *ShopHandler {
	return &ShopHandler{
		service: service,
		logger:  logger,
	}
}

// CreateShopRequest is the body of POST /shops
type CreateShopRequest struct {
	Name           string  `json:"name"`
	URL            string  `json:"url" binding:"required"`
	ConsumerKey    string  `json:"consumer_key" binding:"required"`
	ConsumerSecret string  `json:"consumer_secret" binding:"required"`
	LogoURL        *string `json:"logo_url"`
	IsActive       *bool   `json:"is_active"`
}

// UpdateShopRequest is the body of PUT /shops/:id. Omitted fields are kept.
type UpdateShopRequest struct {
	Name           *string `json:"name"`
	URL            *string `json:"url"`
	ConsumerKey    *string `json:"consumer_key"`
	ConsumerSecret *string `json:"consumer_secret"`
	LogoURL        *string `json:"logo_url"`
	IsActive       *bool   `json:"is_active"`
}

// TestConnectionRequest is the body of POST /shops/test
type TestConnectionRequest struct {
	URL            string `json:"url" binding:"required"`
	ConsumerKey    string `json:"consumer_key" binding:"required"`
	ConsumerSecret string `json:"consumer_secret" binding:"required"`
}

func shopID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shop ID"})
		return uuid.Nil, false
	}
	return id, true
}

// ListShops lists the operator's shops
// GET /api/v1/admin/shops
func (h *ShopHandler) ListShops(c *gin.Context) {
	shops, err := h.service.List(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		respondError(c, h.logger, "Failed to list shops", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shops": shops, "total": len(shops)})
}

// GetShop returns one shop
// GET /api/v1/admin/shops/:id
func (h *ShopHandler) GetShop(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	shop, err := h.service.Get(c.Request.Context(), middleware.OwnerID(c), id)
	if err != nil {
		respondError(c, h.logger, "Failed to get shop", err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// CreateShop connects a new shop after testing its credentials
// POST /api/v1/admin/shops
func (h *ShopHandler) CreateShop(c *gin.Context) {
	var req CreateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shop, err := h.service.Create(c.Request.Context(), middleware.OwnerID(c), services.CreateShopInput{
		Name:           req.Name,
		URL:            req.URL,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
		LogoURL:        req.LogoURL,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondError(c, h.logger, "Failed to create shop", err)
		return
	}
	c.JSON(http.StatusCreated, shop)
}

// UpdateShop changes a shop
// PUT /api/v1/admin/shops/:id
func (h *ShopHandler) UpdateShop(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	var req UpdateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shop, err := h.service.Update(c.Request.Context(), middleware.OwnerID(c), id, services.UpdateShopInput{
		Name:           req.Name,
		URL:            req.URL,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
		LogoURL:        req.LogoURL,
		IsActive:       req.IsActive,
	})
	if err != nil {
		respondError(c, h.logger, "Failed to update shop", err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// ToggleShop flips a shop's active flag
// POST /api/v1/admin/shops/:id/toggle
func (h *ShopHandler) ToggleShop(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	shop, err := h.service.Toggle(c.Request.Context(), middleware.OwnerID(c), id)
	if err != nil {
		respondError(c, h.logger, "Failed to toggle shop", err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

// DeleteShop disconnects a shop
// DELETE /api/v1/admin/shops/:id
func (h *ShopHandler) DeleteShop(c *gin.Context) {
	id, ok := shopID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), middleware.OwnerID(c), id); err != nil {
		respondError(c, h.logger, "Failed to delete shop", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shop deleted"})
}

// TestConnection checks credentials without saving them
// POST /api/v1/admin/shops/test
func (h *ShopHandler) TestConnection(c *gin.Context) {
	var req TestConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.service.TestConnection(c.Request.Context(), req.URL, req.ConsumerKey, req.ConsumerSecret); err != nil {
		respondError(c, h.logger, "Connection test failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
