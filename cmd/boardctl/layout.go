package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/domain"
)

func boardsCmd(env cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List all boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), env, func(svc *board.Service) error {
				boards, err := svc.ListBoards(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(boards) == 0 {
					fmt.Fprintln(out, "no boards")
					return nil
				}
				for _, b := range boards {
					fmt.Fprintf(out, "%s  %s%s\n", idColor.Sprint(b.ID), b.Title, archivedMarker(b.Archived))
				}
				return nil
			})
		},
	}
}

func layoutCmd(env cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the ordered layout of a board or list",
		Long: `Print children in position order together with container capacity.

Examples:
  boardctl layout board 0192f1c4-...
  boardctl layout list 0192f1c5-...`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "board <board-id>",
		Short: "Print a board with its lists and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), env, func(svc *board.Service) error {
				layout, err := svc.GetBoard(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printBoard(cmd.OutOrStdout(), layout)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <list-id>",
		Short: "Print a list with its cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), env, func(svc *board.Service) error {
				list, err := svc.GetList(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				cards, err := svc.Cards().Layout(cmd.Context(), list.ID)
				if err != nil {
					return err
				}
				printList(cmd.OutOrStdout(), board.ListLayout{
					List:     list,
					Cards:    cards,
					Capacity: svc.Cards().CapacityFor(list.ID, len(cards)),
				}, "")
				return nil
			})
		},
	})

	return cmd
}

var (
	idColor       = color.New(color.FgHiBlack)
	titleColor    = color.New(color.Bold)
	positionColor = color.New(color.FgCyan)
)

func printBoard(out io.Writer, layout *board.Layout) {
	b := layout.Board
	fmt.Fprintf(out, "%s %s%s  %s\n",
		titleColor.Sprint(b.Title), idColor.Sprintf("(%s)", b.ID), archivedMarker(b.Archived),
		formatCapacity(layout.Capacity))
	for _, l := range layout.Lists {
		printList(out, l, "  ")
	}
}

func printList(out io.Writer, l board.ListLayout, indent string) {
	fmt.Fprintf(out, "%s%s %s %s  %s\n", indent,
		positionColor.Sprintf("[%d]", l.List.Position),
		titleColor.Sprint(l.List.Title), idColor.Sprintf("(%s)", l.List.ID),
		formatCapacity(l.Capacity))
	for _, c := range l.Cards {
		done := " "
		if c.Completed {
			done = color.New(color.FgGreen).Sprint("✓")
		}
		fmt.Fprintf(out, "%s    %s %s %s %s\n", indent,
			positionColor.Sprintf("[%d]", c.Position), done, c.Title, idColor.Sprintf("(%s)", c.ID))
	}
}

func formatCapacity(c domain.Capacity) string {
	return fmt.Sprintf("%d/%d %s", c.Count, c.Max, statusColor(c.Status).Sprint(c.Status))
}

func statusColor(s domain.CapacityStatus) *color.Color {
	switch s {
	case domain.CapacityLimitReached:
		return color.New(color.FgRed)
	case domain.CapacityWarning:
		return color.New(color.FgYellow)
	case domain.CapacityAboveRecommended:
		return color.New(color.FgHiYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func archivedMarker(archived bool) string {
	if !archived {
		return ""
	}
	return color.New(color.FgHiBlack).Sprint(" [archived]")
}
