package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rezkam/boardly/internal/application/board"
)

func reindexCmd(env cliEnv) *cobra.Command {
	var boardID, listID string

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rewrite positions of a container to 0..n-1",
		Long: `Renumber the children of one container densely, keeping their current
order. Use --board to reindex the lists of a board, --list for the cards
of a list. A container that is already dense is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), env, func(svc *board.Service) error {
				var (
					rewritten int
					err       error
					target    string
				)
				if boardID != "" {
					target = "board " + boardID
					rewritten, err = svc.Lists().Normalize(cmd.Context(), boardID)
				} else {
					target = "list " + listID
					rewritten, err = svc.Cards().Normalize(cmd.Context(), listID)
				}
				if err != nil {
					return fmt.Errorf("failed to reindex %s: %w", target, err)
				}

				out := cmd.OutOrStdout()
				if rewritten == 0 {
					color.New(color.FgGreen).Fprint(out, "✓ ")
					fmt.Fprintf(out, "%s already dense\n", target)
					return nil
				}
				color.New(color.FgYellow).Fprint(out, "↻ ")
				fmt.Fprintf(out, "%s: %d positions rewritten\n", target, rewritten)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&boardID, "board", "", "board whose lists are reindexed")
	cmd.Flags().StringVar(&listID, "list", "", "list whose cards are reindexed")
	cmd.MarkFlagsOneRequired("board", "list")
	cmd.MarkFlagsMutuallyExclusive("board", "list")

	return cmd
}
