package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/niaga-platform/service-wooadmin/internal/cache"
	"github.com/niaga-platform/service-wooadmin/internal/config"
	"github.com/niaga-platform/service-wooadmin/internal/events"
	"github.com/niaga-platform/service-wooadmin/internal/handlers"
	"github.com/niaga-platform/service-wooadmin/internal/invoice"
	"github.com/niaga-platform/service-wooadmin/internal/logger"
	"github.com/niaga-platform/service-wooadmin/internal/middleware"
	"github.com/niaga-platform/service-wooadmin/internal/providers"
	"github.com/niaga-platform/service-wooadmin/internal/providers/demo"
	"github.com/niaga-platform/service-wooadmin/internal/providers/woocommerce"
	"github.com/niaga-platform/service-wooadmin/internal/repository"
	"github.com/niaga-platform/service-wooadmin/internal/routes"
	"github.com/niaga-platform/service-wooadmin/internal/services"
)

func main() {
	// Load .env file in development
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	zlog, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize Sentry for error tracking
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          cfg.Sentry.Release,
			ServerName:       cfg.App.Name,
			EnableTracing:    true,
			TracesSampleRate: 0.1,
		}); err != nil {
			zlog.Warn("Failed to initialize Sentry", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	responseCache := cache.New(cfg.Cache.DefaultTTL)

	// Shop store and client builder for the configured data source
	var (
		shopRepo       repository.ShopStore
		builder        providers.Builder
		tokenValidator *middleware.TokenValidator
	)
	switch cfg.App.DataSource {
	case config.DataSourceDemo:
		dataset := demo.NewDataset(cfg.Demo.Seed)
		memRepo := repository.NewMemoryShopRepository()
		if err := seedDemoShops(rootCtx, memRepo, dataset); err != nil {
			zlog.Fatal("Failed to seed demo shops", zap.Error(err))
		}
		shopRepo = memRepo
		builder = dataset.Builder()
		go dataset.Simulate(rootCtx, cfg.Demo.OrderInterval, zlog.Named("demo"))
		zlog.Info("Running on the demo dataset", zap.Int("shops", len(dataset.Shops())))

	case config.DataSourceWooCommerce:
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
		if err != nil {
			zlog.Fatal("Failed to connect to database", zap.Error(err))
		}
		sqlDB, _ := db.DB()
		defer sqlDB.Close()

		if err := repository.Migrate(db); err != nil {
			zlog.Fatal("Failed to migrate shop store", zap.Error(err))
		}
		shopRepo = repository.NewShopRepository(db)
		builder = woocommerce.NewBuilder(woocommerce.BuilderConfig{
			RequestTimeout: cfg.WooCommerce.RequestTimeout,
			RetryAttempts:  cfg.WooCommerce.RetryAttempts,
			RateLimitRPS:   cfg.WooCommerce.RateLimitRPS,
			RateLimitBurst: cfg.WooCommerce.RateLimitBurst,
			Cache:          responseCache,
			CacheTTL:       cfg.Cache.DefaultTTL,
		}, zlog)

		if cfg.JWT.Secret == "" {
			zlog.Fatal("SUPABASE_JWT_SECRET is required outside demo mode")
		}
		tokenValidator = middleware.NewTokenValidator(cfg.JWT.Secret)
	}

	factory := providers.NewClientFactory(&providers.FactoryConfig{
		Source:  cfg.App.DataSource,
		Builder: builder,
		Logger:  zlog,
	})

	// Redis (optional) backs the stats cache and notification state
	var (
		statsCache    services.StatsCache    = services.NewMemoryStatsCache(responseCache, cfg.Cache.StatsTTL)
		seenStore     services.SeenStore     = services.NewMemorySeenStore()
		settingsStore services.SettingsStore = &services.MemorySettingsStore{}
	)
	if addr := cfg.Redis.Addr(); addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			zlog.Warn("Failed to connect to Redis, using in-memory state", zap.Error(err))
			_ = redisClient.Close()
		} else {
			defer redisClient.Close()
			zlog.Info("Connected to Redis", zap.String("addr", addr))
			statsCache = services.NewRedisStatsCache(redisClient, cfg.Cache.StatsTTL, zlog)
			seenStore = services.NewRedisSeenStore(redisClient)
			settingsStore = services.NewRedisSettingsStore(redisClient)
		}
	}

	// Connect to NATS (optional - only if configured)
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = nats.Connect(cfg.NATS.URL, nats.Name(cfg.App.Name))
		if err != nil {
			zlog.Warn("Failed to connect to NATS, order events disabled", zap.Error(err))
			natsConn = nil
		} else {
			defer natsConn.Close()
			zlog.Info("Connected to NATS", zap.String("url", cfg.NATS.URL))
		}
	}
	eventPublisher := events.NewPublisher(natsConn, zlog)

	// Initialize services
	shopService := services.NewShopService(services.ShopServiceConfig{
		Repo:       shopRepo,
		Factory:    factory,
		Cache:      responseCache,
		StatsCache: statsCache,
		Seen:       seenStore,
		Overrides:  cfg.ShopMetadata,
		Logger:     zlog,
	})
	orderService := services.NewOrderService(shopService, eventPublisher, zlog)
	feedService := services.NewFeedService(shopService, services.FeedConfig{
		WindowDays:  cfg.Feed.WindowDays,
		PerShopSize: cfg.Feed.PerShopSize,
	}, zlog)
	statsAggregator := services.NewStatsAggregator(shopService, statsCache, zlog)

	hub := services.NewNotificationHub(zlog)
	poller := services.NewNotificationPoller(services.PollerConfig{
		Resolver:  shopService,
		Seen:      seenStore,
		Settings:  settingsStore,
		Notifiers: []services.Notifier{hub, eventPublisher},
		Defaults: services.NotificationSettings{
			Enabled:     cfg.Notifications.Enabled,
			Interval:    cfg.Notifications.Interval,
			Sound:       cfg.Notifications.Sound,
			ShowDetails: cfg.Notifications.ShowDetails,
			RecentLimit: cfg.Notifications.RecentLimit,
		},
		Logger: zlog.Named("notifications"),
	})
	if err := poller.Start(rootCtx); err != nil {
		zlog.Fatal("Failed to start notification poller", zap.Error(err))
	}
	defer poller.Stop()

	invoices := invoice.NewRegistry(invoice.NewHTMLRenderer())

	// Initialize handlers
	shopHandler := handlers.NewShopHandler(shopService, zlog)
	orderHandler := handlers.NewOrderHandler(orderService, invoices, zlog)
	feedHandler := handlers.NewFeedHandler(feedService, zlog)
	statsHandler := handlers.NewStatsHandler(statsAggregator, zlog)
	notificationHandler := handlers.NewNotificationHandler(poller, hub, zlog)

	// Set Gin mode
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	router := gin.New()

	// Apply global middleware
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(middleware.RequestLogger(zlog))
	router.Use(middleware.CORS(cfg.CORS.Origins()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"service":     cfg.App.Name,
			"data_source": factory.Source(),
			"time":        time.Now().UTC(),
		})
	})

	routes.SetupRoutes(router, &routes.RouteConfig{
		ShopHandler:         shopHandler,
		OrderHandler:        orderHandler,
		FeedHandler:         feedHandler,
		StatsHandler:        statsHandler,
		NotificationHandler: notificationHandler,
		TokenValidator:      tokenValidator,
	})

	// WriteTimeout stays unset: stats and notification streams are long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		zlog.Info("WooCommerce admin service starting",
			zap.String("port", cfg.App.Port),
			zap.String("data_source", cfg.App.DataSource),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("Shutting down server...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exited")
}

// seedDemoShops registers the generated demo stores as the demo operator's
// shops.
func seedDemoShops(ctx context.Context, repo repository.ShopStore, dataset *demo.Dataset) error {
	shops, err := dataset.ShopRecords(middleware.DemoOwnerID)
	if err != nil {
		return err
	}
	for i := range shops {
		if err := repo.Create(ctx, &shops[i]); err != nil {
			return err
		}
	}
	return nil
}
