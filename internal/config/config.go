// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported OTEL_EXPORTER values.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

const minJWTSecretLength = 32

const defaultExchangeAPIURL = "https://api.frankfurter.app"

// ExchangeDisabled turns off balance conversion when set as EXCHANGE_API_URL.
const ExchangeDisabled = "none"

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DatabaseURL          string
	GeminiAPIKey         string
	GeminiModel          string
	LogLevel             string
	LogFormat            string
	LogHashSalt          string
	JWTSecret            string
	SessionTTL           time.Duration
	HTTPAddr             string
	CORSAllowedOrigins   []string
	OTelExporter         string
	OTelServiceName      string
	Timezone             string
	ExchangeAPIURL       string
	ExchangeRateTTL      time.Duration
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      os.Getenv("GEMINI_MODEL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		LogHashSalt:      os.Getenv("LOG_HASH_SALT"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		OTelExporter:     strings.ToLower(os.Getenv("OTEL_EXPORTER")),
		OTelServiceName:  os.Getenv("OTEL_SERVICE_NAME"),
		Timezone:         os.Getenv("TIMEZONE"),
		ExchangeAPIURL:   strings.TrimSpace(os.Getenv("EXCHANGE_API_URL")),
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.OTelExporter == "" {
		cfg.OTelExporter = ExporterNone
	}
	if cfg.OTelServiceName == "" {
		cfg.OTelServiceName = "expenditure-manager"
	}

	cfg.SessionTTL = 24 * time.Hour
	if ttlStr := os.Getenv("SESSION_TTL"); ttlStr != "" {
		if d, err := time.ParseDuration(ttlStr); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}

	if cfg.ExchangeAPIURL == "" {
		cfg.ExchangeAPIURL = defaultExchangeAPIURL
	}
	cfg.ExchangeRateTTL = 12 * time.Hour
	if ttlStr := os.Getenv("EXCHANGE_RATE_TTL"); ttlStr != "" {
		if d, err := time.ParseDuration(ttlStr); err == nil && d > 0 {
			cfg.ExchangeRateTTL = d
		}
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	} else if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		cfg.Timezone = "UTC"
	}

	for origin := range strings.SplitSeq(os.Getenv("CORS_ALLOWED_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	whitelistStr := os.Getenv("WHITELISTED_USER_IDS")
	if whitelistStr != "" {
		for idStr := range strings.SplitSeq(whitelistStr, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
		}
	}

	whitelistUsernames := os.Getenv("WHITELISTED_USERNAMES")
	if whitelistUsernames != "" {
		for username := range strings.SplitSeq(whitelistUsernames, ",") {
			username = strings.TrimSpace(username)
			if username == "" {
				continue
			}
			// Remove @ prefix if present
			username = strings.TrimPrefix(username, "@")
			cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < minJWTSecretLength {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters", minJWTSecretLength))
	}

	if c.BotEnabled() && len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required when TELEGRAM_BOT_TOKEN is set")
	}

	switch c.OTelExporter {
	case ExporterNone, ExporterStdout, ExporterOTLPGRPC, ExporterOTLPHTTP:
	default:
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not supported", c.OTelExporter))
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT %q must be console or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// BotEnabled reports whether the Telegram front end should run.
func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}

// Location returns the configured timezone for calendar calculations.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
// Returns true if either the user ID or username is whitelisted.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	// Check username whitelist (case-insensitive)
	if username != "" {
		username = strings.TrimPrefix(username, "@")
		for _, whitelisted := range c.WhitelistedUsernames {
			if strings.EqualFold(whitelisted, username) {
				return true
			}
		}
	}

	return false
}

// ExchangeEnabled reports whether balances may be converted to other currencies.
func (c *Config) ExchangeEnabled() bool {
	return c.ExchangeAPIURL != ExchangeDisabled
}
