package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// BrowserConfig controls the shared Chrome process.
type BrowserConfig struct {
	PoolSize  int
	Headless  bool
	UserAgent string
	ExecPath  string
}

// ScraperConfig carries the tunables of one extraction session.
type ScraperConfig struct {
	SearchURL              string
	ScrollStep             int
	ScrollDelay            time.Duration
	ScrollMaxIdle          int
	PhoneSuppressThreshold int
	SessionTimeout         time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Env                string
	Port               string
	DatabaseURL        string
	JWTSecret          string
	TokenTTL           time.Duration
	AuthRequired       bool
	RateLimitSearch    RateLimitConfig
	WebhookURL         string
	DefaultPhoneRegion string
	Browser            BrowserConfig
	Scraper            ScraperConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Env:                getEnv("APP_ENV", "production"),
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:           parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour),
		WebhookURL:         os.Getenv("LEADS_WEBHOOK_URL"),
		DefaultPhoneRegion: strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "ID")),
		Browser: BrowserConfig{
			UserAgent: getEnv("BROWSER_USER_AGENT", defaultUserAgent),
			ExecPath:  os.Getenv("BROWSER_EXEC_PATH"),
		},
		Scraper: ScraperConfig{
			SearchURL:      getEnv("MAPS_SEARCH_URL", "https://www.google.com/maps/search/"),
			ScrollDelay:    parseDuration(getEnv("SCROLL_DELAY", "2s"), 2*time.Second),
			SessionTimeout: parseDuration(getEnv("SESSION_TIMEOUT", "15m"), 15*time.Minute),
		},
	}

	var err error
	if cfg.AuthRequired, err = parseBool("AUTH_REQUIRED", false); err != nil {
		return nil, err
	}
	if cfg.Browser.Headless, err = parseBool("BROWSER_HEADLESS", true); err != nil {
		return nil, err
	}
	if cfg.Browser.PoolSize, err = parseInt("BROWSER_POOL_SIZE", 2); err != nil {
		return nil, err
	}
	if cfg.Scraper.ScrollStep, err = parseInt("SCROLL_STEP", 5000); err != nil {
		return nil, err
	}
	if cfg.Scraper.ScrollMaxIdle, err = parseInt("SCROLL_MAX_IDLE", 5); err != nil {
		return nil, err
	}
	if cfg.Scraper.PhoneSuppressThreshold, err = parseInt("PHONE_SUPPRESS_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.Browser.PoolSize <= 0 {
		return nil, fmt.Errorf("invalid BROWSER_POOL_SIZE value: must be positive")
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SEARCH", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SEARCH value: %w", err)
	}
	cfg.RateLimitSearch = rl

	return cfg, nil
}

// IsDevelopment reports whether the service runs in a local/dev environment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local":
		return true
	}
	return false
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func parseInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}
