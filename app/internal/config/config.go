package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"ftsomon/app/internal/models"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Target
	ProviderAddress string
	Network         string

	// Scheduling
	Interval          time.Duration
	BackoffCap        time.Duration
	FailureAlertAfter int

	// Thresholds
	Thresholds models.ThresholdConfig

	// Acquisition
	ScrapeMode   string // "browser" or "http"
	FetchTimeout time.Duration

	// Semantic fallback
	OpenAIKey   string
	OpenAIModel string

	// Notification
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
	WebhookSecret    string
	NotifyTimeout    time.Duration

	// Persistence / status API
	DBPath          string
	EnableStatusAPI bool
	Port            string
}

// ErrMissingProvider is returned when PROVIDER_ADDRESS is not set.
var ErrMissingProvider = errors.New("PROVIDER_ADDRESS is not set")

// Load reads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ProviderAddress:   strings.TrimSpace(getenv("PROVIDER_ADDRESS", "")),
		Network:           getenv("NETWORK", "flare"),
		Interval:          envDurSecs("MONITORING_INTERVAL", 900),
		BackoffCap:        envDurSecs("BACKOFF_CAP_SECS", 3600),
		FailureAlertAfter: envInt("FAILURE_ALERT_AFTER", 5),
		ScrapeMode:        strings.ToLower(getenv("SCRAPE_MODE", "browser")),
		FetchTimeout:      envDurSecs("FETCH_TIMEOUT_SECS", 60),
		OpenAIKey:         getenv("OPENAI_API_KEY", ""),
		OpenAIModel:       getenv("OPENAI_MODEL", "gpt-4o"),
		TelegramBotToken:  getenv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    getenv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:        getenv("ALERT_WEBHOOK_URL", ""),
		WebhookSecret:     getenv("ALERT_WEBHOOK_SECRET", ""),
		NotifyTimeout:     envDurSecs("NOTIFY_TIMEOUT_SECS", 10),
		DBPath:            getenv("DB_PATH", "./ftsomon.db"),
		EnableStatusAPI:   envBool("ENABLE_STATUS_API", false),
		Port:              getenv("PORT", "4556"),
	}

	if cfg.ProviderAddress == "" {
		return nil, ErrMissingProvider
	}
	if cfg.ScrapeMode != "browser" && cfg.ScrapeMode != "http" {
		return nil, fmt.Errorf("invalid SCRAPE_MODE %q (want browser or http)", cfg.ScrapeMode)
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("MONITORING_INTERVAL must be positive")
	}
	if cfg.BackoffCap < cfg.Interval {
		cfg.BackoffCap = cfg.Interval
	}

	cfg.Thresholds = models.ThresholdConfig{
		MinAvailability6h:  envFloat("MIN_AVAILABILITY_6H", 90.0),
		MinAvailability24h: envFloat("MIN_AVAILABILITY_24H", 90.0),
		MinSuccess6hPri:    envFloat("MIN_SUCCESS_RATE_6H_PRIMARY", 20.0),
		MinSuccess6hSec:    envFloat("MIN_SUCCESS_RATE_6H_SECONDARY", 85.0),
		MinSuccess24hPri:   envFloat("MIN_SUCCESS_RATE_24H_PRIMARY", 20.0),
		MinSuccess24hSec:   envFloat("MIN_SUCCESS_RATE_24H_SECONDARY", 85.0),
	}

	return cfg, nil
}

// DashboardURL returns the systems-explorer page for the configured provider.
func (c *Config) DashboardURL() string {
	return fmt.Sprintf("https://%s-systems-explorer.flare.network/providers/ftso/%s",
		c.Network, c.ProviderAddress)
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}
