package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/client"
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new task",
	Long: `Create a new task with the given title.

Priority is high, medium (default) or low; h, m and l also work. The task
starts in the default status unless --status names another one. Due dates are
YYYY-MM-DD, today or tomorrow.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := createRequest(cmd, args[0], time.Now())
		if err != nil {
			return err
		}

		return withClient(func(ctx context.Context, c *client.Client) error {
			task, err := c.CreateTask(ctx, req)
			if err != nil {
				return err
			}
			printTask(os.Stdout, task, format())
			return nil
		})
	},
}

// createRequest builds the create request from the command's flags.
func createRequest(cmd *cobra.Command, title string, now time.Time) (request.CreateTaskRequest, error) {
	req := request.CreateTaskRequest{Title: title}

	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p, err := parsePriority(v)
		if err != nil {
			return req, err
		}
		s := string(p)
		req.Priority = &s
	}
	if v, _ := cmd.Flags().GetString("due"); v != "" {
		due, err := parseDue(v, now)
		if err != nil {
			return req, err
		}
		req.DueDate = &due
	}
	req.Description = stringFlag(cmd, "description")
	req.StatusID = stringFlag(cmd, "status")
	req.AssigneeID = stringFlag(cmd, "assignee")
	req.AssigneeName = stringFlag(cmd, "assignee-name")
	return req, nil
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long:  `List tasks with optional filtering by status and assignee.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		assignee, _ := cmd.Flags().GetString("assignee")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		return withClient(func(ctx context.Context, c *client.Client) error {
			result, err := c.ListTasks(ctx, client.TaskFilter{
				Status:   status,
				Assignee: assignee,
				Page:     page,
				PerPage:  perPage,
			})
			if err != nil {
				return err
			}
			printTaskList(os.Stdout, result.Data, result.Pagination, format())
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			task, err := c.GetTask(ctx, args[0])
			if err != nil {
				return err
			}
			printTask(os.Stdout, task, format())
			return nil
		})
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a task",
	Long: `Update the fields of a task. Only the flags given are changed.

Use --unassign to clear the assignee and --no-due to clear the due date.
Status changes go through 'flowboard move'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := editRequest(cmd, time.Now())
		if err != nil {
			return err
		}

		return withClient(func(ctx context.Context, c *client.Client) error {
			task, err := c.UpdateTask(ctx, args[0], req)
			if err != nil {
				return err
			}
			printTask(os.Stdout, task, format())
			return nil
		})
	},
}

// editRequest builds the update request from the flags that were set.
func editRequest(cmd *cobra.Command, now time.Time) (request.UpdateTaskRequest, error) {
	var req request.UpdateTaskRequest
	empty := ""

	req.Title = stringFlag(cmd, "title")
	req.Description = stringFlag(cmd, "description")
	req.AssigneeID = stringFlag(cmd, "assignee")
	req.AssigneeName = stringFlag(cmd, "assignee-name")

	if cmd.Flags().Changed("priority") {
		v, _ := cmd.Flags().GetString("priority")
		p, err := parsePriority(v)
		if err != nil {
			return req, err
		}
		s := string(p)
		req.Priority = &s
	}
	if cmd.Flags().Changed("due") {
		v, _ := cmd.Flags().GetString("due")
		due, err := parseDue(v, now)
		if err != nil {
			return req, err
		}
		req.DueDate = &due
	}
	if unassign, _ := cmd.Flags().GetBool("unassign"); unassign {
		req.AssigneeID = &empty
	}
	if noDue, _ := cmd.Flags().GetBool("no-due"); noDue {
		req.DueDate = &empty
	}

	if req == (request.UpdateTaskRequest{}) {
		return req, fmt.Errorf("nothing to update: pass at least one field flag")
	}
	return req, nil
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			if err := c.DeleteTask(ctx, args[0]); err != nil {
				return err
			}
			printSuccess(os.Stdout, fmt.Sprintf("Deleted task %s", args[0]), format())
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show a task's status history",
	Long:  `Show every status the task has been in, with the time spent there.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			entries, err := c.TaskHistory(ctx, args[0])
			if err != nil {
				return err
			}
			printHistory(os.Stdout, entries, format())
			return nil
		})
	},
}

// stringFlag returns the flag's value when it was set on the command line.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(historyCmd)

	addCreateFlags(createCmd)

	listCmd.Flags().StringP("status", "s", "", "Filter by status id")
	listCmd.Flags().StringP("assignee", "a", "", "Filter by assignee id")
	listCmd.Flags().Int("page", 1, "Page number")
	listCmd.Flags().Int("per-page", 50, "Items per page")

	addEditFlags(editCmd)
}

func addCreateFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("priority", "p", "", "Priority: high, medium, low")
	cmd.Flags().StringP("description", "d", "", "Task description")
	cmd.Flags().StringP("status", "s", "", "Initial status id")
	cmd.Flags().StringP("assignee", "a", "", "Assignee id")
	cmd.Flags().String("assignee-name", "", "Assignee display name")
	cmd.Flags().String("due", "", "Due date: YYYY-MM-DD, today or tomorrow")
}

func addEditFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "New title")
	cmd.Flags().StringP("priority", "p", "", "Priority: high, medium, low")
	cmd.Flags().StringP("description", "d", "", "Task description")
	cmd.Flags().StringP("assignee", "a", "", "Assignee id")
	cmd.Flags().String("assignee-name", "", "Assignee display name")
	cmd.Flags().String("due", "", "Due date: YYYY-MM-DD, today or tomorrow")
	cmd.Flags().Bool("unassign", false, "Clear the assignee")
	cmd.Flags().Bool("no-due", false, "Clear the due date")
	cmd.MarkFlagsMutuallyExclusive("assignee", "unassign")
	cmd.MarkFlagsMutuallyExclusive("due", "no-due")
}
