package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/niaga-platform/service-wooadmin/internal/handlers"
	"github.com/niaga-platform/service-wooadmin/internal/middleware"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	ShopHandler         *handlers.ShopHandler
	OrderHandler        *handlers.OrderHandler
	FeedHandler         *handlers.FeedHandler
	StatsHandler        *handlers.StatsHandler
	NotificationHandler *handlers.NotificationHandler
	// TokenValidator is nil in demo mode, which authenticates every
	// request as the demo operator.
	TokenValidator *middleware.TokenValidator
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	admin := v1.Group("/admin")
	admin.Use(middleware.Auth(cfg.TokenValidator))
	{
		shops := admin.Group("/shops")
		{
			shops.GET("", cfg.ShopHandler.ListShops)
			shops.POST("", cfg.ShopHandler.CreateShop)
			shops.POST("/test", cfg.ShopHandler.TestConnection)
			shops.GET("/:id", cfg.ShopHandler.GetShop)
			shops.PUT("/:id", cfg.ShopHandler.UpdateShop)
			shops.DELETE("/:id", cfg.ShopHandler.DeleteShop)
			shops.POST("/:id/toggle", cfg.ShopHandler.ToggleShop)
			shops.GET("/:id/reports", cfg.OrderHandler.Report)

			// Per-shop orders
			shops.GET("/:id/orders", cfg.OrderHandler.ListOrders)
			shops.GET("/:id/orders/:order_id", cfg.OrderHandler.GetOrder)
			shops.PUT("/:id/orders/:order_id/status", cfg.OrderHandler.UpdateStatus)
			shops.GET("/:id/orders/:order_id/invoice", cfg.OrderHandler.Invoice)
		}

		// Merged order feed
		feeds := admin.Group("/feeds")
		{
			feeds.POST("", cfg.FeedHandler.CreateFeed)
			feeds.GET("/:id", cfg.FeedHandler.GetFeed)
			feeds.POST("/:id/more", cfg.FeedHandler.LoadMore)
			feeds.PUT("/:id/filters", cfg.FeedHandler.SetFilters)
			feeds.DELETE("/:id", cfg.FeedHandler.DeleteFeed)
		}

		admin.GET("/stats", cfg.StatsHandler.GetStats)
		admin.GET("/stats/stream", cfg.StatsHandler.StreamStats)

		notifications := admin.Group("/notifications")
		{
			notifications.GET("/settings", cfg.NotificationHandler.GetSettings)
			notifications.PUT("/settings", cfg.NotificationHandler.UpdateSettings)
			notifications.DELETE("/seen", cfg.NotificationHandler.ResetSeen)
			notifications.DELETE("/seen/:shop_id", cfg.NotificationHandler.ResetSeen)
			notifications.GET("/stream", cfg.NotificationHandler.Stream)
		}
	}
}
