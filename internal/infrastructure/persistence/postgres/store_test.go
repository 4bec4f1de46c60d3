package postgres_test

import (
	"context"
	"testing"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/config"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/compliance"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/postgres"
	"github.com/stretchr/testify/require"
)

func TestStoreCompliance(t *testing.T) {
	cfg, err := config.LoadTestConfig()
	require.NoError(t, err)
	dsn := cfg.Database.DSN
	if dsn == "" {
		t.Skip("BOARDLY_DB_DSN not set, skipping postgres store tests")
	}

	ctx := context.Background()
	store, err := postgres.NewStoreWithConfig(ctx, postgres.DBConfig{DSN: dsn, AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	compliance.Run(t, func(t *testing.T) board.Store {
		_, err := store.Pool().Exec(ctx, "TRUNCATE boards CASCADE")
		require.NoError(t, err)
		return store
	})
}
