// Package persistence selects a storage backend from configuration.
package persistence

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/config"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/memory"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/postgres"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/sqlite"
)

// Store is a board store that owns resources to release on shutdown.
type Store interface {
	board.Store
	io.Closer
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend() {
	case config.StoragePostgres:
		store, err := postgres.NewStoreWithConfig(ctx, postgresConfig(cfg.Database))
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "storage initialized", "backend", config.StoragePostgres, "dsn", MaskPassword(cfg.Database.DSN))
		return store, nil

	case config.StorageSQLite:
		store, err := sqlite.Open(ctx, sqliteConfig(cfg.SQLite))
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "storage initialized", "backend", config.StorageSQLite, "path", cfg.SQLite.Path)
		return store, nil

	default:
		slog.InfoContext(ctx, "storage initialized", "backend", config.StorageMemory)
		return memory.NewStore(), nil
	}
}

// Migrate applies pending schema migrations for the configured backend.
// The memory backend has no schema and is a no-op.
func Migrate(ctx context.Context, cfg config.StorageConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch cfg.Backend() {
	case config.StoragePostgres:
		return postgres.Migrate(ctx, cfg.Database.DSN)
	case config.StorageSQLite:
		return sqlite.Migrate(ctx, sqliteConfig(cfg.SQLite))
	default:
		return nil
	}
}

func postgresConfig(c config.DatabaseConfig) postgres.DBConfig {
	return postgres.DBConfig{
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: time.Duration(c.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(c.ConnMaxIdleTime) * time.Second,
		AutoMigrate:     c.AutoMigrate,
	}
}

func sqliteConfig(c config.SQLiteConfig) sqlite.Config {
	return sqlite.Config{
		Path:         c.Path,
		BusyTimeout:  c.BusyTimeout,
		MaxOpenConns: c.MaxOpenConns,
		AutoMigrate:  c.AutoMigrate,
	}
}

// MaskPassword masks the password in a connection string for logging.
func MaskPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil {
		return "[REDACTED]"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxxx")
		}
	}
	return u.String()
}

// Describe is a short human-readable label for the configured backend.
func Describe(cfg config.StorageConfig) string {
	switch cfg.Backend() {
	case config.StoragePostgres:
		return fmt.Sprintf("postgres (%s)", MaskPassword(cfg.Database.DSN))
	case config.StorageSQLite:
		return fmt.Sprintf("sqlite (%s)", cfg.SQLite.Path)
	default:
		return config.StorageMemory
	}
}
