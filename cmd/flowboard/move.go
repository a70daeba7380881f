package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/airyra/flowboard/internal/client"
)

var moveCmd = &cobra.Command{
	Use:   "move <status> <id>...",
	Short: "Move tasks to a status",
	Long: `Move one or more tasks into a workflow status.

With several ids the move is all or nothing: if the target's WIP limit cannot
take every task, none of them move. Archived statuses never accept tasks.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		statusID, ids := args[0], args[1:]

		return withClient(func(ctx context.Context, c *client.Client) error {
			if len(ids) == 1 {
				result, err := c.MoveTask(ctx, ids[0], statusID)
				if err != nil {
					return err
				}
				printMove(os.Stdout, result, format())
				return nil
			}

			result, err := c.MoveTasks(ctx, ids, statusID)
			if err != nil {
				return err
			}
			printBulkMove(os.Stdout, result, format())
			return nil
		})
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <id>",
	Short: "Undo a task's last move",
	Long: `Return a task to the status it was in before its last move.

The undone move stays in the history, marked as reverted. Running revert again
walks further back.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			result, err := c.RevertTask(ctx, args[0])
			if err != nil {
				return err
			}
			printRevert(os.Stdout, result, format())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(revertCmd)
}
