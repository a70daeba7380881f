package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/client"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the board",
	Long: `Show the board's columns with their task counts and WIP state, then the tasks
of every swimlane grouped by column.

--swimlane and --show-archived override the saved settings for this view only.
--collapse hides the tasks of the given lane ids.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var q request.BoardQueryRequest
		q.Swimlane = stringFlag(cmd, "swimlane")
		if cmd.Flags().Changed("show-archived") {
			v, _ := cmd.Flags().GetBool("show-archived")
			q.ShowArchived = &v
		}
		q.Collapsed, _ = cmd.Flags().GetStringSlice("collapse")

		return withClient(func(ctx context.Context, c *client.Client) error {
			view, err := c.Board(ctx, q)
			if err != nil {
				return err
			}
			printBoard(os.Stdout, view, format())
			return nil
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics [status]",
	Short: "Show column or swimlane metrics",
	Long: `Show time in column, completion rate, overdue and aging counts for every
column, or for one column when a status id is given.

--swimlanes reports per swimlane instead, using the board's swimlane setting
or --swimlane.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lanes, _ := cmd.Flags().GetBool("swimlanes")
		property, _ := cmd.Flags().GetString("swimlane")

		return withClient(func(ctx context.Context, c *client.Client) error {
			switch {
			case lanes || property != "":
				metrics, err := c.SwimlaneMetrics(ctx, property)
				if err != nil {
					return err
				}
				printSwimlaneMetrics(os.Stdout, metrics, format())
			case len(args) == 1:
				m, err := c.ColumnMetrics(ctx, args[0])
				if err != nil {
					return err
				}
				printColumnMetrics(os.Stdout, []board.ColumnMetrics{*m}, format())
			default:
				metrics, err := c.AllColumnMetrics(ctx)
				if err != nil {
					return err
				}
				printColumnMetrics(os.Stdout, metrics, format())
			}
			return nil
		})
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects known to the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			projects, err := c.ListProjects(ctx)
			if err != nil {
				return err
			}
			printProjects(os.Stdout, projects, format())
			return nil
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the server is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			if err := c.Health(ctx); err != nil {
				return err
			}
			printSuccess(os.Stdout, "Server is running", format())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(healthCmd)

	boardCmd.Flags().String("swimlane", "", "Swimlanes: none, assignee, priority, dueDate")
	boardCmd.Flags().Bool("show-archived", false, "Include archived columns")
	boardCmd.Flags().StringSlice("collapse", nil, "Lane ids to collapse")

	metricsCmd.Flags().Bool("swimlanes", false, "Report per swimlane")
	metricsCmd.Flags().String("swimlane", "", "Swimlane property for --swimlanes")
	metricsCmd.MarkFlagsMutuallyExclusive("swimlanes", "swimlane")
}
