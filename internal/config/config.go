package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort         = "8080"
	defaultBaseURL      = "http://localhost:8080"
	defaultProxyTimeout = 20 * time.Second
)

// Web configures the HTTP binary: player page, lookup and relay.
type Web struct {
	Port         string
	DatabaseURL  string
	BaseURL      string
	GeoIPPath    string
	ProxyTimeout time.Duration
	LogLevel     string
}

// Bot configures the Telegram polling binary.
type Bot struct {
	Token       string
	DatabaseURL string
	AppURL      string
	Debug       bool
	LogLevel    string
}

func LoadWeb() (Web, error) {
	if err := loadDotEnv(); err != nil {
		return Web{}, err
	}

	cfg := Web{
		Port:         getEnv("PORT", defaultPort),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		BaseURL:      strings.TrimRight(getEnv("BASE_URL", defaultBaseURL), "/"),
		GeoIPPath:    os.Getenv("GEOIP_DB_PATH"),
		ProxyTimeout: getEnvDuration("PROXY_TIMEOUT", defaultProxyTimeout),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
	if cfg.DatabaseURL == "" {
		return Web{}, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadBot() (Bot, error) {
	if err := loadDotEnv(); err != nil {
		return Bot{}, err
	}

	cfg := Bot{
		Token:       os.Getenv("BOT_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		AppURL:      strings.TrimRight(getEnv("APP_URL", defaultBaseURL), "/"),
		Debug:       getEnvBool("BOT_DEBUG", false),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	if cfg.Token == "" {
		return Bot{}, errors.New("BOT_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return Bot{}, errors.New("DATABASE_URL is required")
	}
	return cfg, nil
}

// loadDotEnv reads ./.env when present. Variables already set in the
// environment win over the file.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	// Bare integers are seconds.
	if secs := getEnvInt64(key, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
