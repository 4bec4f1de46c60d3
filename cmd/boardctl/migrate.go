package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rezkam/boardly/internal/infrastructure/persistence"
)

func migrateCmd(env cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply the embedded schema migrations to the configured postgres or
sqlite database. The memory backend has no schema; the command is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			if err := env.migrate(cmd.Context(), cfg.Storage); err != nil {
				return fmt.Errorf("failed to migrate %s: %w", persistence.Describe(cfg.Storage), err)
			}
			out := cmd.OutOrStdout()
			color.New(color.FgGreen).Fprint(out, "✓ ")
			fmt.Fprintf(out, "migrations applied to %s\n", persistence.Describe(cfg.Storage))
			return nil
		},
	}
}
