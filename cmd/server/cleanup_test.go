package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rezkam/boardly/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCleanup_StopsServerThenStoreThenTelemetry(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey("test"), "marker")
	var callOrder []string

	server := &fakeShutdowner{name: "serverShutdown", calls: &callOrder}
	telemetry := &fakeShutdowner{name: "telemetryShutdown", calls: &callOrder}
	store := &fakeStore{calls: &callOrder}

	newCleanup(ctx, server, store, telemetry)()

	require.Equal(t, []string{"serverShutdown", "storeClose", "telemetryShutdown"}, callOrder)
	require.Equal(t, "marker", server.receivedCtx.Value(ctxKey("test")))
	require.Equal(t, "marker", telemetry.receivedCtx.Value(ctxKey("test")))
}

func TestNewCleanup_ContinuesAfterFailures(t *testing.T) {
	var callOrder []string

	server := &fakeShutdowner{name: "serverShutdown", calls: &callOrder, err: errors.New("deadline")}
	store := &fakeStore{calls: &callOrder, err: errors.New("busy")}

	newCleanup(context.Background(), server, store, nil)()

	require.Equal(t, []string{"serverShutdown", "storeClose"}, callOrder)
}

func TestNewShutdownContext_DefaultsTimeout(t *testing.T) {
	ctx, cancel := newShutdownContext(0)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultShutdownTimeout), deadline, time.Second)
}

func TestStartCapacity(t *testing.T) {
	t.Run("env limits without file", func(t *testing.T) {
		p, err := startCapacity(context.Background(), config.CapacityConfig{MaxCardsPerList: 7})
		require.NoError(t, err)
		assert.Equal(t, 7, p.Current().MaxCardsPerList)
	})

	t.Run("file overrides env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "capacity.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_cards_per_list: 12\n"), 0o600))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p, err := startCapacity(ctx, config.CapacityConfig{File: path, MaxCardsPerList: 7, MaxListsPerBoard: 9})
		require.NoError(t, err)
		assert.Equal(t, 12, p.Current().MaxCardsPerList)
		assert.Equal(t, 9, p.Current().MaxListsPerBoard)
	})

	t.Run("missing file falls back", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		p, err := startCapacity(ctx, config.CapacityConfig{File: filepath.Join(t.TempDir(), "absent.yaml"), MaxCardsPerList: 7})
		require.NoError(t, err)
		assert.Equal(t, 7, p.Current().MaxCardsPerList)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "capacity.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_cards_per_list: [\n"), 0o600))

		_, err := startCapacity(context.Background(), config.CapacityConfig{File: path})
		require.Error(t, err)
	})
}

type ctxKey string

type fakeShutdowner struct {
	name        string
	calls       *[]string
	err         error
	receivedCtx context.Context
}

func (f *fakeShutdowner) Shutdown(ctx context.Context) error {
	f.receivedCtx = ctx
	*f.calls = append(*f.calls, f.name)
	return f.err
}

type fakeStore struct {
	calls *[]string
	err   error
}

func (s *fakeStore) Close() error {
	*s.calls = append(*s.calls, "storeClose")
	return s.err
}
