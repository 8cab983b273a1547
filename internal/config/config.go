package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Data sources the service can run against.
const (
	DataSourceDemo        = "demo"
	DataSourceWooCommerce = "woocommerce"
)

// Config holds all configuration for the admin service
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	NATS          NATSConfig          `mapstructure:"nats"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Sentry        SentryConfig        `mapstructure:"sentry"`
	WooCommerce   WooCommerceConfig   `mapstructure:"woocommerce"`
	Cache         CacheConfig         `mapstructure:"cache"`
	Feed          FeedConfig          `mapstructure:"feed"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	CORS          CORSConfig          `mapstructure:"cors"`
	Demo          DemoConfig          `mapstructure:"demo"`

	// ShopMetadata overrides store metadata by shop host (e.g. "shop.example.com").
	ShopMetadata map[string]ShopMetadataOverride `mapstructure:"shop_metadata"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name       string `mapstructure:"name"`
	Env        string `mapstructure:"env"`
	Port       string `mapstructure:"port"`
	DataSource string `mapstructure:"data_source"`
}

// DatabaseConfig holds the credential store connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode)
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, or empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// JWTConfig holds the Supabase JWT secret used to verify operator tokens
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// SentryConfig holds Sentry error tracking configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// WooCommerceConfig holds REST client tuning
type WooCommerceConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

// CacheConfig holds TTLs for the response caches
type CacheConfig struct {
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	StatsTTL   time.Duration `mapstructure:"stats_ttl"`
}

// FeedConfig holds the sliding-window settings for the merged order feed
type FeedConfig struct {
	WindowDays  int `mapstructure:"window_days"`
	PerShopSize int `mapstructure:"per_shop_size"`
}

// NotificationsConfig holds the new-order poller defaults
type NotificationsConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	RecentLimit int           `mapstructure:"recent_limit"`
	Sound       bool          `mapstructure:"sound"`
	ShowDetails bool          `mapstructure:"show_details"`
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// Origins splits the comma-separated origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// DemoConfig tunes the generated dataset
type DemoConfig struct {
	Seed          int64         `mapstructure:"seed"`
	OrderInterval time.Duration `mapstructure:"order_interval"`
}

// ShopMetadataOverride replaces fetched store metadata for a known shop.
type ShopMetadataOverride struct {
	StoreName string `mapstructure:"store_name"`
	Address   string `mapstructure:"address"`
	Email     string `mapstructure:"email"`
	Currency  string `mapstructure:"currency"`
	LogoURL   string `mapstructure:"logo_url"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"app.name":        "APP_NAME",
	"app.env":         "APP_ENV",
	"app.port":        "APP_PORT",
	"app.data_source": "DATA_SOURCE",

	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.ssl_mode": "DB_SSLMODE",

	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"nats.url": "NATS_URL",

	"jwt.secret": "SUPABASE_JWT_SECRET",

	"sentry.dsn":         "SENTRY_DSN",
	"sentry.environment": "APP_ENV",
	"sentry.release":     "APP_VERSION",

	"woocommerce.request_timeout":  "WC_REQUEST_TIMEOUT",
	"woocommerce.retry_attempts":   "WC_RETRY_ATTEMPTS",
	"woocommerce.rate_limit_rps":   "WC_RATE_LIMIT_RPS",
	"woocommerce.rate_limit_burst": "WC_RATE_LIMIT_BURST",

	"cache.default_ttl": "CACHE_DEFAULT_TTL",
	"cache.stats_ttl":   "CACHE_STATS_TTL",

	"feed.window_days":   "FEED_WINDOW_DAYS",
	"feed.per_shop_size": "FEED_PER_SHOP_SIZE",

	"notifications.enabled":      "NOTIFICATIONS_ENABLED",
	"notifications.interval":     "NOTIFICATIONS_INTERVAL",
	"notifications.recent_limit": "NOTIFICATIONS_RECENT_LIMIT",
	"notifications.sound":        "NOTIFICATIONS_SOUND",
	"notifications.show_details": "NOTIFICATIONS_SHOW_DETAILS",

	"cors.allowed_origins": "ALLOWED_ORIGINS",

	"demo.seed":           "DEMO_SEED",
	"demo.order_interval": "DEMO_ORDER_INTERVAL",
}

// Load loads configuration from environment variables and an optional config file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.App.DataSource {
	case DataSourceDemo, DataSourceWooCommerce:
	default:
		return fmt.Errorf("invalid data source %q: want %q or %q", c.App.DataSource, DataSourceDemo, DataSourceWooCommerce)
	}
	if c.Feed.WindowDays <= 0 {
		return fmt.Errorf("feed.window_days must be positive")
	}
	if c.Notifications.Interval <= 0 {
		return fmt.Errorf("notifications.interval must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-wooadmin")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8010")
	v.SetDefault("app.data_source", DataSourceDemo)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.ssl_mode", "disable")

	// Redis
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// NATS
	v.SetDefault("nats.url", "")

	// WooCommerce
	v.SetDefault("woocommerce.request_timeout", 30*time.Second)
	v.SetDefault("woocommerce.retry_attempts", 3)
	v.SetDefault("woocommerce.rate_limit_rps", 5.0)
	v.SetDefault("woocommerce.rate_limit_burst", 10)

	// Cache
	v.SetDefault("cache.default_ttl", 5*time.Minute)
	v.SetDefault("cache.stats_ttl", 5*time.Minute)

	// Feed
	v.SetDefault("feed.window_days", 7)
	v.SetDefault("feed.per_shop_size", 100)

	// Notifications
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.interval", 15*time.Second)
	v.SetDefault("notifications.recent_limit", 10)
	v.SetDefault("notifications.sound", true)
	v.SetDefault("notifications.show_details", true)

	// CORS
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://localhost:5173")

	// Demo
	v.SetDefault("demo.seed", 20240105)
	v.SetDefault("demo.order_interval", 2*time.Minute)

	// Sentry
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "1.0.0")
}
