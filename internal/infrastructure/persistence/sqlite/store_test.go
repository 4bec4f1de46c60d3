package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/compliance"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.Config{
		Path:        filepath.Join(t.TempDir(), "boardly.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreCompliance(t *testing.T) {
	compliance.Run(t, func(t *testing.T) board.Store {
		return openStore(t)
	})
}

func TestConfig_DSN(t *testing.T) {
	dsn := sqlite.Config{Path: "/tmp/b.db", BusyTimeout: 2 * time.Second}.DSN()
	assert.Contains(t, dsn, "file:/tmp/b.db?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "busy_timeout%282000%29")
	assert.Contains(t, dsn, "foreign_keys%281%29")

	withQuery := sqlite.Config{Path: "file:b.db?mode=rwc"}.DSN()
	assert.Contains(t, withQuery, "file:b.db?mode=rwc&")
}

func TestMigrate_IsIdempotent(t *testing.T) {
	cfg := sqlite.Config{Path: filepath.Join(t.TempDir(), "boardly.db")}
	require.NoError(t, sqlite.Migrate(context.Background(), cfg))
	require.NoError(t, sqlite.Migrate(context.Background(), cfg))
}
