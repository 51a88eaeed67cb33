// Package config loads the gateway daemon's configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eflash24/eflash-store/internal/storage"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port     string
	BasePath string
	LogLevel slog.Level

	Store storage.Config

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	PasswordHash   string
	HashCost       int
	AdminEmail     string
	AdminPassword  string
	AuthCollection string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:     fallback(os.Getenv("PORT"), "8080"),
		BasePath: cleanBasePath(fallback(os.Getenv("GATEWAY_BASE_PATH"), "/api/data")),
		Store: storage.Config{
			Driver:      fallback(os.Getenv("STORE_DRIVER"), storage.DriverFile),
			DataDir:     fallback(os.Getenv("DATA_DIR"), "./data"),
			DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
			SQLitePath:  fallback(os.Getenv("SQLITE_PATH"), "./data/eflash.db"),
		},
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:      fallback(os.Getenv("JWT_ISSUER"), "eflash-gateway"),
		PasswordHash:   fallback(os.Getenv("PASSWORD_HASH"), vault.AlgoBcrypt),
		AdminEmail:     schema.NormalizeEmail(fallback(os.Getenv("ADMIN_EMAIL"), schema.DefaultAdminEmail)),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		AuthCollection: fallback(os.Getenv("AUTH_COLLECTION"), "_credentials"),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	cost, err := strconv.Atoi(fallback(os.Getenv("HASH_COST"), "10"))
	if err != nil {
		return Config{}, fmt.Errorf("HASH_COST: %w", err)
	}
	cfg.HashCost = cost

	if err := cfg.LogLevel.UnmarshalText([]byte(fallback(os.Getenv("LOG_LEVEL"), "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Store.Driver == storage.DriverPostgres && cfg.Store.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required for the postgres driver")
	}
	if !schema.IsReserved(cfg.AuthCollection) {
		return Config{}, fmt.Errorf("AUTH_COLLECTION %q must start with an underscore", cfg.AuthCollection)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func cleanBasePath(p string) string {
	p = path.Clean("/" + strings.Trim(p, "/"))
	if p == "/" {
		return ""
	}
	return p
}
