package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the dashboard server.
type Config struct {
	// HTTP bind settings
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Storage settings
	StoreBackend string // "file" or "sqlite"
	DataDir      string
	SQLitePath   string

	// Quote provider settings
	ScreenerBaseURL string
	FetchMode       string // "http" or "browser"
	HTTPTimeoutMS   int
	CDPAddress      string
	CDPPort         int

	// Behavior
	RefreshOnSwitch bool

	// Currency conversion
	FXBaseURL  string
	FXCacheTTL int // seconds

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr:         getEnvOrDefault("DASHBOARD_BIND_ADDR", "127.0.0.1:8390"),
		PortCandidates:   getEnvListOrDefault("DASHBOARD_BIND_CANDIDATES", []string{"127.0.0.1:8390", "127.0.0.1:8391", "127.0.0.1:8392"}),
		PortAutoFallback: getEnvBoolOrDefault("DASHBOARD_PORT_AUTO_FALLBACK", true),
		StoreBackend:     strings.ToLower(getEnvOrDefault("DASHBOARD_STORE_BACKEND", "file")),
		DataDir:          getEnvOrDefault("DASHBOARD_DATA_DIR", "./data"),
		SQLitePath:       getEnvOrDefault("DASHBOARD_SQLITE_PATH", "./data/dashboard.db"),
		ScreenerBaseURL:  getEnvOrDefault("SCREENER_BASE_URL", "https://www.screener.in"),
		FetchMode:        strings.ToLower(getEnvOrDefault("SCREENER_FETCH_MODE", "http")),
		HTTPTimeoutMS:    getEnvIntOrDefault("SCREENER_HTTP_TIMEOUT_MS", 15000),
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9220),
		RefreshOnSwitch:  getEnvBoolOrDefault("DASHBOARD_REFRESH_ON_SWITCH", true),
		FXBaseURL:        getEnvOrDefault("FX_BASE_URL", "https://api.exchangerate-api.com/v4"),
		FXCacheTTL:       getEnvIntOrDefault("FX_CACHE_TTL_SECONDS", 3600),
		LogLevel:         strings.ToLower(getEnvOrDefault("DASHBOARD_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("DASHBOARD_LOG_FILE", "logs/dashboard.log"),
	}

	switch cfg.StoreBackend {
	case "file", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
	switch cfg.FetchMode {
	case "http", "browser":
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s", cfg.FetchMode)
	}
	if cfg.HTTPTimeoutMS < 1000 {
		cfg.HTTPTimeoutMS = 1000
	}

	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint used by the chromedp remote allocator.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
