package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	JWTSecret        string
	JWTRefreshSecret string
	AdminSecretToken string
	MuxTokenID       string
	MuxTokenSecret   string
	MuxWebhookSecret string
	MuxCORSOrigin    string
	UploadMaxBytes   int64
	StaleAfter       time.Duration
	PortalCacheTTL   time.Duration
	LegacyOriginURL  string
	RateLimitMax     int
	RateLimitWindow  time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

const defaultUploadMaxBytes = int64(2) * 1024 * 1024 * 1024

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("AULAVID")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "AulaVid API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("mux.cors_origin", "*")
	v.SetDefault("upload.max_bytes", defaultUploadMaxBytes)
	v.SetDefault("reconcile.stale_after", "1h")
	v.SetDefault("portal.cache_ttl", "60s")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")

	staleAfter, err := time.ParseDuration(v.GetString("reconcile.stale_after"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid reconcile stale_after: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("portal.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid portal cache ttl: %w", err)
	}

	window, err := time.ParseDuration(v.GetString("rate_limit.window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		JWTSecret:        v.GetString("jwt.secret"),
		JWTRefreshSecret: v.GetString("jwt.refresh_secret"),
		AdminSecretToken: v.GetString("admin.secret_token"),
		MuxTokenID:       v.GetString("mux.token_id"),
		MuxTokenSecret:   v.GetString("mux.token_secret"),
		MuxWebhookSecret: v.GetString("mux.webhook_secret"),
		MuxCORSOrigin:    v.GetString("mux.cors_origin"),
		UploadMaxBytes:   v.GetInt64("upload.max_bytes"),
		StaleAfter:       staleAfter,
		PortalCacheTTL:   cacheTTL,
		LegacyOriginURL:  v.GetString("legacy.origin_url"),
		RateLimitMax:     v.GetInt("rate_limit.max"),
		RateLimitWindow:  window,
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.MuxTokenID == "" || cfg.MuxTokenSecret == "" {
		return Config{}, fmt.Errorf("mux credentials must be provided")
	}

	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = defaultUploadMaxBytes
	}

	return cfg, nil
}
