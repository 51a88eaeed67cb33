package sdk

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// Deployment environments.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DefaultDevURL is the gateway a development build talks to.
const DefaultDevURL = "http://localhost:8080/api/data"

// Config selects the gateway deployment and the local fallback store.
type Config struct {
	Env     string
	DevURL  string
	ProdURL string
	// AuthURL overrides the auth base derived from the gateway URL.
	AuthURL string
	// Offline skips the gateway entirely.
	Offline bool

	DataDir string
	Timeout time.Duration
	Retries int

	AdminEmail    string
	AdminPassword string
	HashCost      int
	// SessionKey seals the persisted session when set (32 bytes).
	SessionKey []byte
	AssetBase  string
}

// ConfigFromEnv reads the EFLASH_* variables.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		Env:           fallback(os.Getenv("EFLASH_ENV"), EnvDevelopment),
		DevURL:        fallback(os.Getenv("EFLASH_DEV_URL"), DefaultDevURL),
		ProdURL:       strings.TrimSpace(os.Getenv("EFLASH_PROD_URL")),
		AuthURL:       strings.TrimSpace(os.Getenv("EFLASH_AUTH_URL")),
		Offline:       os.Getenv("EFLASH_OFFLINE") == "true",
		DataDir:       fallback(os.Getenv("EFLASH_DATA_DIR"), "./eflash-data"),
		AdminEmail:    fallback(os.Getenv("EFLASH_ADMIN_EMAIL"), schema.DefaultAdminEmail),
		AdminPassword: os.Getenv("EFLASH_ADMIN_PASSWORD"),
		AssetBase:     fallback(os.Getenv("EFLASH_ASSET_BASE"), "/"),
	}

	timeout, err := time.ParseDuration(fallback(os.Getenv("EFLASH_TIMEOUT"), "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("EFLASH_TIMEOUT: %w", err)
	}
	cfg.Timeout = timeout

	cost, err := strconv.Atoi(fallback(os.Getenv("EFLASH_HASH_COST"), "10"))
	if err != nil {
		return Config{}, fmt.Errorf("EFLASH_HASH_COST: %w", err)
	}
	cfg.HashCost = cost

	if raw := strings.TrimSpace(os.Getenv("EFLASH_SESSION_KEY")); raw != "" {
		key, err := vault.ParseKey(raw)
		if err != nil {
			return Config{}, fmt.Errorf("EFLASH_SESSION_KEY: %w", err)
		}
		cfg.SessionKey = key
	}

	switch cfg.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return Config{}, fmt.Errorf("EFLASH_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}
	if cfg.Env == EnvProduction && cfg.ProdURL == "" && !cfg.Offline {
		return Config{}, fmt.Errorf("EFLASH_PROD_URL is required in production")
	}
	return cfg, nil
}

// BaseURL is the collection gateway for the selected environment.
func (c Config) BaseURL() string {
	if c.Env == EnvProduction {
		return c.ProdURL
	}
	if c.DevURL == "" {
		return DefaultDevURL
	}
	return c.DevURL
}

// AuthBaseURL is AuthURL, or /auth on the gateway's host.
func (c Config) AuthBaseURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	u, err := url.Parse(c.BaseURL())
	if err != nil || u.Host == "" {
		return ""
	}
	u.Path, u.RawQuery = "/auth", ""
	return u.String()
}

// AssetURL resolves a static asset path against the deployment root.
func (c Config) AssetURL(p string) string {
	base := c.AssetBase
	if base == "" {
		base = "/"
	}
	if strings.Contains(base, "://") {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
	}
	return path.Join("/", base, p)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}
