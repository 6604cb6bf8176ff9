package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the stub API server
type Config struct {
	// Server Configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// JWT Configuration
	JWT JWTConfig

	// Logging Configuration
	Logging LoggingConfig

	// SeedDemo creates a demo account and issue on startup
	SeedDemo bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	SecureCookies  bool
	AppURL         string // where confirmation links redirect to
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// JWTConfig holds the signing keys of access and refresh tokens
type JWTConfig struct {
	Secret        string
	RefreshSecret string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	secureCookies, err := boolEnv("SECURE_COOKIES", false)
	if err != nil {
		return nil, err
	}

	seedDemo, err := boolEnv("SEED_DEMO", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           envOr("PORT", "4000"),
			AllowedOrigins: splitList(envOr("ALLOWED_ORIGINS", "http://localhost:5173")),
			SecureCookies:  secureCookies,
			AppURL:         strings.TrimRight(envOr("DECISIONHUB_APP_URL", "http://localhost:5173"), "/"),
		},
		Database: DatabaseConfig{
			URL: envOr("DATABASE_URL", "decisionhub.sqlite"),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
		SeedDemo: seedDemo,
	}

	if cfg.JWT.Secret == "" || cfg.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET and JWT_REFRESH_SECRET must be set")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
