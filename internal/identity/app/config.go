package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/egx/identity/pkg/jwtx"
)

var ErrMissingSecret = errors.New("IDENTITY_JWT_SECRET must be set")

type Config struct {
	JwtSecret  string        // Required: HMAC signing secret, at least 32 bytes
	Issuer     string        // Optional: issuer claim for tokens (default: identity)
	Audience   string        // Optional: audience claim for tokens (default: issuer)
	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 168h)

	DatabaseFile         string        // Optional: path to SQLite database file (default: ./identity.db)
	PepperFile           string        // Optional: path to pepper file for password hashing (default: ./pepper)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		JwtSecret:            os.Getenv("IDENTITY_JWT_SECRET"),
		Issuer:               getEnvOrDefault("IDENTITY_ISSUER", "identity"),
		Audience:             os.Getenv("IDENTITY_AUDIENCE"),
		AccessTTL:            getEnvDurationOrDefault("IDENTITY_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("IDENTITY_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		DatabaseFile:         getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:           getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	if cfg.Audience == "" {
		cfg.Audience = cfg.Issuer
	}

	return cfg
}

// Validate rejects configurations the service must not start with. A
// missing or short signing secret is fatal: tokens minted with a weak
// secret would outlive the process.
func (c Config) Validate() error {
	if c.JwtSecret == "" {
		return ErrMissingSecret
	}
	return jwtx.Config{
		Secret:     []byte(c.JwtSecret),
		Issuer:     c.Issuer,
		Audience:   c.Audience,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are read as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
