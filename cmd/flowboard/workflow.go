package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/client"
	"github.com/airyra/flowboard/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage workflow statuses",
	Long: `Commands for the board's columns. A project starts on the legacy workflow
(TODO, IN_PROGRESS, IN_REVIEW, DONE, BLOCKED); the first edit turns it into
editable statuses.`,
}

var statusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List statuses in board order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			view, err := c.Statuses(ctx)
			if err != nil {
				return err
			}
			printStatuses(os.Stdout, view, format())
			return nil
		})
	},
}

var statusAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a status at the end of the board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := request.CreateStatusRequest{Name: args[0]}
		req.Color, _ = cmd.Flags().GetString("color")
		req.Category, _ = cmd.Flags().GetString("category")
		if cmd.Flags().Changed("wip") {
			wip, _ := cmd.Flags().GetInt("wip")
			req.WipLimit = &wip
		}
		req.ColumnGroupID = stringFlag(cmd, "group")
		aging, err := agingFlag(cmd)
		if err != nil {
			return err
		}
		req.AgingThresholds = aging

		return withClient(func(ctx context.Context, c *client.Client) error {
			status, err := c.CreateStatus(ctx, req)
			if err != nil {
				return err
			}
			printStatus(os.Stdout, status, format())
			return nil
		})
	},
}

var statusEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a status",
	Long: `Change a status. Only the flags given are changed.

--no-wip removes the WIP limit, --no-group takes the status out of its column
group and --no-aging removes the aging thresholds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := statusEditRequest(cmd)
		if err != nil {
			return err
		}

		return withClient(func(ctx context.Context, c *client.Client) error {
			status, err := c.UpdateStatus(ctx, args[0], req)
			if err != nil {
				return err
			}
			printStatus(os.Stdout, status, format())
			return nil
		})
	},
}

func statusEditRequest(cmd *cobra.Command) (request.UpdateStatusRequest, error) {
	var req request.UpdateStatusRequest
	req.Name = stringFlag(cmd, "name")
	req.Color = stringFlag(cmd, "color")
	req.Category = stringFlag(cmd, "category")
	req.ColumnGroupID = stringFlag(cmd, "group")
	if cmd.Flags().Changed("wip") {
		wip, _ := cmd.Flags().GetInt("wip")
		req.WipLimit = &wip
	}
	req.ClearWipLimit, _ = cmd.Flags().GetBool("no-wip")
	req.ClearColumnGroup, _ = cmd.Flags().GetBool("no-group")
	req.ClearAging, _ = cmd.Flags().GetBool("no-aging")

	aging, err := agingFlag(cmd)
	if err != nil {
		return req, err
	}
	req.AgingThresholds = aging

	if req == (request.UpdateStatusRequest{}) {
		return req, fmt.Errorf("nothing to update: pass at least one flag")
	}
	return req, nil
}

// agingFlag parses --aging "warning,critical" in hours.
func agingFlag(cmd *cobra.Command) (*domain.AgingThresholds, error) {
	if !cmd.Flags().Changed("aging") {
		return nil, nil
	}
	v, _ := cmd.Flags().GetString("aging")
	return parseAging(v)
}

func parseAging(v string) (*domain.AgingThresholds, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid aging %q: use <warning-hours>,<critical-hours>", v)
	}
	warning, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	critical, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("invalid aging %q: hours must be whole numbers", v)
	}
	return &domain.AgingThresholds{WarningHours: warning, CriticalHours: critical}, nil
}

var statusArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive a status",
	Long:  `Archive a status. Its tasks stay in place, but no task can move into it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			status, err := c.ArchiveStatus(ctx, args[0])
			if err != nil {
				return err
			}
			printStatus(os.Stdout, status, format())
			return nil
		})
	},
}

var statusUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <id>",
	Short: "Unarchive a status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			status, err := c.UnarchiveStatus(ctx, args[0])
			if err != nil {
				return err
			}
			printStatus(os.Stdout, status, format())
			return nil
		})
	},
}

var statusReorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Set the order of the board's columns",
	Long:  `Reorder the columns. Every status id must be listed exactly once.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			view, err := c.ReorderStatuses(ctx, args)
			if err != nil {
				return err
			}
			printStatuses(os.Stdout, view, format())
			return nil
		})
	},
}

var statusDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a status",
	Long: `Delete a status. Its tasks move to --fallback, or to the default status
when no fallback is given. The default status cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fallback, _ := cmd.Flags().GetString("fallback")

		return withClient(func(ctx context.Context, c *client.Client) error {
			result, err := c.DeleteStatus(ctx, args[0], fallback)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Deleted status %s", result.DeletedID)
			if len(result.Reassigned) > 0 && result.Fallback != nil {
				msg += fmt.Sprintf("; moved %d task(s) to %s", len(result.Reassigned), result.Fallback.Name)
			}
			emit(os.Stdout, result, format(), func(w io.Writer) {
				fmt.Fprintln(w, msg)
			})
			return nil
		})
	},
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "List and apply workflow templates",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflow templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			templates, err := c.Templates(ctx)
			if err != nil {
				return err
			}
			printTemplates(os.Stdout, templates, format())
			return nil
		})
	},
}

var templateApplyCmd = &cobra.Command{
	Use:   "apply <name>",
	Short: "Replace the legacy workflow with a template",
	Long: `Create the template's statuses and move every task into the status with the
matching category. Only a board still on the legacy workflow can take a
template.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			view, err := c.ApplyTemplate(ctx, args[0])
			if err != nil {
				return err
			}
			printStatuses(os.Stdout, view, format())
			return nil
		})
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage column groups",
}

var groupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List column groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			groups, err := c.Groups(ctx)
			if err != nil {
				return err
			}
			printGroups(os.Stdout, groups, format())
			return nil
		})
	},
}

var groupAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a column group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		color, _ := cmd.Flags().GetString("color")

		return withClient(func(ctx context.Context, c *client.Client) error {
			group, err := c.CreateGroup(ctx, args[0], color)
			if err != nil {
				return err
			}
			printGroups(os.Stdout, []*domain.ColumnGroup{group}, format())
			return nil
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change board settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show board settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			settings, err := c.Settings(ctx)
			if err != nil {
				return err
			}
			printSettings(os.Stdout, settings, format())
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change board settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req request.SettingsRequest
		if cmd.Flags().Changed("enforce-wip") {
			v, _ := cmd.Flags().GetBool("enforce-wip")
			req.EnforceWipLimits = &v
		}
		if cmd.Flags().Changed("show-archived") {
			v, _ := cmd.Flags().GetBool("show-archived")
			req.ShowArchivedColumns = &v
		}
		req.SwimlaneProperty = stringFlag(cmd, "swimlane")
		if req == (request.SettingsRequest{}) {
			return fmt.Errorf("nothing to update: pass --enforce-wip, --swimlane or --show-archived")
		}

		return withClient(func(ctx context.Context, c *client.Client) error {
			settings, err := c.UpdateSettings(ctx, req)
			if err != nil {
				return err
			}
			printSettings(os.Stdout, settings, format())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.AddCommand(statusListCmd, statusAddCmd, statusEditCmd, statusArchiveCmd,
		statusUnarchiveCmd, statusReorderCmd, statusDeleteCmd)

	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd, templateApplyCmd)

	rootCmd.AddCommand(groupCmd)
	groupCmd.AddCommand(groupListCmd, groupAddCmd)

	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)

	statusAddCmd.Flags().String("color", "", "Column color")
	statusAddCmd.Flags().String("category", "", "Category: todo, in_progress, done, blocked")
	statusAddCmd.Flags().Int("wip", 0, "WIP limit")
	statusAddCmd.Flags().String("group", "", "Column group id")
	statusAddCmd.Flags().String("aging", "", "Aging thresholds in hours: <warning>,<critical>")

	addStatusEditFlags(statusEditCmd)

	statusDeleteCmd.Flags().String("fallback", "", "Status that receives the deleted status's tasks")

	groupAddCmd.Flags().String("color", "", "Group color")

	settingsSetCmd.Flags().Bool("enforce-wip", true, "Reject moves into full columns")
	settingsSetCmd.Flags().String("swimlane", "", "Swimlanes: none, assignee, priority, dueDate")
	settingsSetCmd.Flags().Bool("show-archived", false, "Show archived columns on the board")
}

func addStatusEditFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "New name")
	cmd.Flags().String("color", "", "Column color")
	cmd.Flags().String("category", "", "Category: todo, in_progress, done, blocked")
	cmd.Flags().Int("wip", 0, "WIP limit")
	cmd.Flags().String("group", "", "Column group id")
	cmd.Flags().String("aging", "", "Aging thresholds in hours: <warning>,<critical>")
	cmd.Flags().Bool("no-wip", false, "Remove the WIP limit")
	cmd.Flags().Bool("no-group", false, "Remove the status from its group")
	cmd.Flags().Bool("no-aging", false, "Remove the aging thresholds")
	cmd.MarkFlagsMutuallyExclusive("wip", "no-wip")
	cmd.MarkFlagsMutuallyExclusive("group", "no-group")
	cmd.MarkFlagsMutuallyExclusive("aging", "no-aging")
}
