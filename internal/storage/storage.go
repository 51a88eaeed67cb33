// Package storage selects the document-store backend the gateway runs on.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/internal/storage/postgres"
	"github.com/eflash24/eflash-store/internal/storage/sqlite"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrUnknownDriver is returned for a driver name Open does not recognise.
var ErrUnknownDriver = errors.New("unknown store driver")

// Config describes which backend to open and where its data lives.
type Config struct {
	Driver      string
	DataDir     string
	DatabaseURL string
	SQLitePath  string
}

// Open returns the store for cfg.Driver. Database-backed drivers connect
// lazily on first use so the gateway can start before its database does.
func Open(ctx context.Context, cfg Config) (engine.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case DriverMemory:
		return engine.NewMemStore(nil, nil), nil
	case DriverFile, "":
		return engine.OpenMemStore(cfg.DataDir)
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		return engine.NewLazy(func(ctx context.Context) (engine.Store, error) {
			slog.Info("connecting to postgres")
			return postgres.NewStore(ctx, cfg.DatabaseURL)
		}), nil
	case DriverSQLite:
		return engine.NewLazy(func(context.Context) (engine.Store, error) {
			slog.Info("opening sqlite database", "path", cfg.SQLitePath)
			return sqlite.Open(cfg.SQLitePath)
		}), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
