package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/capacity"
	"github.com/rezkam/boardly/internal/config"
	"github.com/rezkam/boardly/internal/infrastructure/persistence"
)

// cliEnv is what the commands need from the outside world. Tests replace
// it to run against an in-process store.
type cliEnv struct {
	loadConfig func() (*config.CLIConfig, error)
	openStore  func(ctx context.Context, cfg config.StorageConfig) (persistence.Store, error)
	migrate    func(ctx context.Context, cfg config.StorageConfig) error
}

func defaultEnv() cliEnv {
	return cliEnv{
		loadConfig: config.LoadCLIConfig,
		openStore:  persistence.Open,
		migrate:    persistence.Migrate,
	}
}

func newRootCmd(env cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:   "boardctl",
		Short: "Maintenance tool for boardly stores",
		Long: `boardctl operates directly on the configured store.

The backend is selected with BOARDLY_STORAGE_TYPE (memory, postgres, sqlite)
together with BOARDLY_DB_DSN or BOARDLY_SQLITE_PATH.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(migrateCmd(env))
	root.AddCommand(boardsCmd(env))
	root.AddCommand(layoutCmd(env))
	root.AddCommand(reindexCmd(env))

	return root
}

// withService opens the configured store, builds a service over it and
// closes the store when fn returns.
func withService(ctx context.Context, env cliEnv, fn func(svc *board.Service) error) (err error) {
	cfg, err := env.loadConfig()
	if err != nil {
		return err
	}

	store, err := env.openStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close store: %w", closeErr)
		}
	}()

	svc := board.NewService(store, board.Config{
		Limits: capacity.NewProvider(cfg.Capacity.Limits()),
	})
	return fn(svc)
}
