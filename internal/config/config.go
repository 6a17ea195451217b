package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/checkin-bot/internal/domain"
)

// MaxSweepInterval is the longest tick period that still lands at least one
// sweep inside every check-in window.
const MaxSweepInterval = 2 * domain.MatchTolerance * time.Minute

// Run modes.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken    string `envconfig:"BOT_TOKEN" required:"true"`
	RunMode     string `envconfig:"RUN_MODE" default:"polling"` // polling|webhook
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`   // debug|info|warn|error
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	// WebhookURL is the public base URL Telegram should call in webhook mode.
	WebhookURL    string `envconfig:"WEBHOOK_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`
	// SweepToken enables POST /sweep for external timers.
	SweepToken    string        `envconfig:"SWEEP_TOKEN"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`

	StoreBackend  string `envconfig:"STORE_BACKEND" default:"sqlite"`
	DBPath        string `envconfig:"DB_PATH" default:"./data/checkin.db"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	StorePageSize int    `envconfig:"STORE_PAGE_SIZE" default:"100"`

	PortalBaseURL string        `envconfig:"PORTAL_BASE_URL" default:"https://app.bupt.edu.cn"`
	PortalTimeout time.Duration `envconfig:"PORTAL_TIMEOUT" default:"15s"`
	PortalRate    float64       `envconfig:"PORTAL_RATE" default:"1"` // requests per second
	PortalBurst   int           `envconfig:"PORTAL_BURST" default:"2"`

	AmapKey         string        `envconfig:"AMAP_KEY" required:"true"`
	AmapBaseURL     string        `envconfig:"AMAP_BASE_URL" default:"https://restapi.amap.com"`
	GeocodeCacheTTL time.Duration `envconfig:"GEOCODE_CACHE_TTL" default:"24h"`
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot.
func (c Config) Validate() error {
	switch c.RunMode {
	case ModePolling:
	case ModeWebhook:
		if c.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required in %s mode", ModeWebhook)
		}
	default:
		return fmt.Errorf("invalid RUN_MODE %q", c.RunMode)
	}
	switch c.StoreBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	if c.SweepInterval <= 0 || c.SweepInterval > MaxSweepInterval {
		return fmt.Errorf("SWEEP_INTERVAL must be in (0, %s], got %s", MaxSweepInterval, c.SweepInterval)
	}
	if c.PortalRate <= 0 || c.PortalBurst <= 0 {
		return fmt.Errorf("PORTAL_RATE and PORTAL_BURST must be positive")
	}
	return nil
}

// NonSensitiveString is safe to log.
func (c Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{mode: %s, store: %s, http: %s, sweep: %s, portal: %s}",
		c.RunMode, c.StoreBackend, c.HTTPAddr, c.SweepInterval, c.PortalBaseURL)
}
