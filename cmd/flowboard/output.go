package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/client"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/service"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

const timeLayout = "2006-01-02 15:04:05"

// format returns the output format selected by the global flags.
func format() string {
	if jsonOutput {
		return formatJSON
	}
	return outputFlag
}

// emit writes v as JSON or YAML, or calls text for the table format.
func emit(w io.Writer, v interface{}, f string, text func(w io.Writer)) {
	switch f {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.Encode(v)
	case formatYAML:
		writeYAML(w, v)
	default:
		text(w)
	}
}

// writeYAML goes through JSON first so YAML keys match the API field names.
func writeYAML(w io.Writer, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	enc.Encode(generic)
	enc.Close()
}

// printTask prints a single task to the writer
func printTask(w io.Writer, task *domain.Task, f string) {
	emit(w, task, f, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID:\t%s\n", task.ID)
		fmt.Fprintf(tw, "Title:\t%s\n", task.Title)
		fmt.Fprintf(tw, "Status:\t%s\n", task.StatusKey())
		fmt.Fprintf(tw, "Priority:\t%s\n", task.Priority)
		if task.Description != nil && *task.Description != "" {
			fmt.Fprintf(tw, "Description:\t%s\n", *task.Description)
		}
		if task.IsAssigned() {
			fmt.Fprintf(tw, "Assignee:\t%s\n", task.AssigneeLabel())
		}
		if task.DueDate != nil {
			fmt.Fprintf(tw, "Due:\t%s\n", task.DueDate.Format("2006-01-02"))
		}
		fmt.Fprintf(tw, "Created:\t%s\n", task.CreatedAt.Local().Format(timeLayout))
		fmt.Fprintf(tw, "Updated:\t%s\n", task.UpdatedAt.Local().Format(timeLayout))
		tw.Flush()
	})
}

// printTaskList prints a list of tasks with pagination info
func printTaskList(w io.Writer, tasks []*domain.Task, pagination *client.Pagination, f string) {
	v := map[string]interface{}{
		"data": tasks,
		"pagination": map[string]interface{}{
			"page":        pagination.Page,
			"per_page":    pagination.PerPage,
			"total":       pagination.Total,
			"total_pages": pagination.TotalPages,
		},
	}
	emit(w, v, f, func(w io.Writer) {
		if len(tasks) == 0 {
			fmt.Fprintln(w, "No tasks found")
			return
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\n")
		fmt.Fprintf(tw, "--\t-----\t------\t--------\t--------\n")
		for _, task := range tasks {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				task.ID, truncate(task.Title, 40), task.StatusKey(), task.Priority, assignee(task))
		}
		tw.Flush()

		if pagination.TotalPages > 1 {
			fmt.Fprintf(w, "\nPage %d of %d (%d total tasks)\n",
				pagination.Page, pagination.TotalPages, pagination.Total)
		}
	})
}

// printHistory prints status history entries, oldest first
func printHistory(w io.Writer, entries []*domain.StatusHistoryEntry, f string) {
	emit(w, entries, f, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No history found")
			return
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "STATUS\tENTERED\tEXITED\tTIME\tBY\n")
		fmt.Fprintf(tw, "------\t-------\t------\t----\t--\n")
		for _, e := range entries {
			exited, spent := "-", "-"
			if e.ExitedAt != nil {
				exited = e.ExitedAt.Local().Format(timeLayout)
				spent = board.FormatDuration(e.ExitedAt.Sub(e.EnteredAt))
			}
			name := e.StatusName
			if e.Reverted {
				name += " (reverted)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				name, e.EnteredAt.Local().Format(timeLayout), exited, spent, truncate(e.ChangedBy, 30))
		}
		tw.Flush()
	})
}

// printMove prints the outcome of a single move
func printMove(w io.Writer, result *service.MoveResult, f string) {
	emit(w, result, f, func(w io.Writer) {
		if result.NoOp {
			fmt.Fprintf(w, "Task %s is already in %s\n", result.Task.ID, result.ToStatusID)
			return
		}
		fmt.Fprintf(w, "Moved %s: %s -> %s\n", result.Task.ID, result.FromStatusID, result.ToStatusID)
	})
}

// printBulkMove prints the outcome of a bulk move
func printBulkMove(w io.Writer, result *service.BulkMoveResult, f string) {
	emit(w, result, f, func(w io.Writer) {
		fmt.Fprintf(w, "Moved %d task(s) to %s\n", len(result.Moved), result.ToStatusID)
		for _, t := range result.Moved {
			fmt.Fprintf(w, "  %s  %s\n", t.ID, truncate(t.Title, 50))
		}
		if len(result.Unchanged) > 0 {
			fmt.Fprintf(w, "Already there: %s\n", strings.Join(result.Unchanged, ", "))
		}
	})
}

// printRevert prints the outcome of a revert
func printRevert(w io.Writer, result *service.RevertResult, f string) {
	emit(w, result, f, func(w io.Writer) {
		fmt.Fprintf(w, "Reverted %s: %s -> %s\n",
			result.Task.ID, result.Reverted.StatusName, result.Reopened.StatusName)
	})
}

// printStatuses prints the workflow columns in board order
func printStatuses(w io.Writer, view *service.WorkflowView, f string) {
	emit(w, view, f, func(w io.Writer) {
		if view.Legacy {
			fmt.Fprintln(w, "Legacy workflow (apply a template or add a status to customize)")
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\tNAME\tCATEGORY\tWIP\tFLAGS\n")
		fmt.Fprintf(tw, "--\t----\t--------\t---\t-----\n")
		for _, s := range view.Statuses {
			wip := "-"
			if s.WipLimit != nil {
				wip = fmt.Sprint(*s.WipLimit)
			}
			var flags []string
			if s.IsDefault {
				flags = append(flags, "default")
			}
			if s.IsArchived {
				flags = append(flags, "archived")
			}
			category := string(s.Category)
			if category == "" {
				category = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, category, wip, strings.Join(flags, ","))
		}
		tw.Flush()
	})
}

// printStatus prints one workflow status
func printStatus(w io.Writer, s *domain.WorkflowStatus, f string) {
	printStatuses(w, &service.WorkflowView{Statuses: []*domain.WorkflowStatus{s}}, f)
}

// printTemplates prints the available workflow templates
func printTemplates(w io.Writer, templates []domain.WorkflowTemplate, f string) {
	emit(w, templates, f, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "NAME\tSTATUSES\n")
		fmt.Fprintf(tw, "----\t--------\n")
		for _, t := range templates {
			names := make([]string, len(t.Statuses))
			for i, s := range t.Statuses {
				names[i] = s.Name
			}
			fmt.Fprintf(tw, "%s\t%s\n", t.Name, strings.Join(names, " > "))
		}
		tw.Flush()
	})
}

// printGroups prints column groups
func printGroups(w io.Writer, groups []*domain.ColumnGroup, f string) {
	emit(w, groups, f, func(w io.Writer) {
		if len(groups) == 0 {
			fmt.Fprintln(w, "No column groups")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "ID\tNAME\tCOLLAPSED\tSTATUSES\n")
		fmt.Fprintf(tw, "--\t----\t---------\t--------\n")
		for _, g := range groups {
			fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", g.ID, g.Name, g.IsCollapsed, strings.Join(g.StatusIDs, ","))
		}
		tw.Flush()
	})
}

// printSettings prints the board settings
func printSettings(w io.Writer, s *domain.WorkflowSettings, f string) {
	emit(w, s, f, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Enforce WIP limits:\t%v\n", s.EnforceWipLimits)
		fmt.Fprintf(tw, "Swimlanes:\t%s\n", s.SwimlaneProperty)
		fmt.Fprintf(tw, "Show archived columns:\t%v\n", s.ShowArchivedColumns)
		tw.Flush()
	})
}

// printBoard prints each swimlane as a block with one line per column.
func printBoard(w io.Writer, view *board.View, f string) {
	emit(w, view, f, func(w io.Writer) {
		names := make(map[string]string, len(view.Columns))
		for _, c := range view.Columns {
			names[c.Status.ID] = c.Status.Name
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "COLUMN\tTASKS\tWIP\n")
		for _, c := range view.Columns {
			wip := "-"
			if c.Status.WipLimit != nil {
				wip = fmt.Sprint(*c.Status.WipLimit)
				if c.OverLimit {
					wip += " (over)"
				} else if c.AtWipLimit {
					wip += " (full)"
				}
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Status.Name, c.TaskCount, wip)
		}
		tw.Flush()

		for _, lane := range view.Lanes {
			fmt.Fprintf(w, "\n== %s (%d)\n", lane.Lane.Title, lane.Lane.TaskCount)
			if lane.Lane.IsCollapsed {
				continue
			}
			for _, cell := range lane.Cells {
				if len(cell.Tasks) == 0 {
					continue
				}
				fmt.Fprintf(w, "  %s:\n", names[cell.StatusID])
				for _, t := range cell.Tasks {
					fmt.Fprintf(w, "    %s  %-6s  %s\n", t.ID, t.Priority, truncate(t.Title, 50))
				}
			}
		}
	})
}

// printColumnMetrics prints one row per column
func printColumnMetrics(w io.Writer, metrics []board.ColumnMetrics, f string) {
	emit(w, metrics, f, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "COLUMN\tTASKS\tAVG\tMEDIAN\tMAX\tDONE%%\tOVERDUE\tAGING\n")
		for _, m := range metrics {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%.0f\t%d\t%d/%d\n",
				m.StatusName, m.TaskCount,
				m.TimeInColumn.AverageLabel, m.TimeInColumn.MedianLabel, m.TimeInColumn.MaxLabel,
				m.CompletionRate, m.OverdueCount, m.Aging.Warning, m.Aging.Critical)
		}
		tw.Flush()
	})
}

// printSwimlaneMetrics prints one row per swimlane
func printSwimlaneMetrics(w io.Writer, metrics []board.SwimlaneMetrics, f string) {
	emit(w, metrics, f, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "LANE\tTASKS\tTODO\tDOING\tBLOCKED\tDONE\tDONE%%\tOVERDUE\n")
		for _, m := range metrics {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%.0f\t%d\n",
				m.Title, m.TaskCount, m.Todo, m.InProgress, m.Blocked, m.Completed, m.CompletionRate, m.OverdueCount)
		}
		tw.Flush()
	})
}

// printProjects prints project names sorted
func printProjects(w io.Writer, projects []string, f string) {
	sort.Strings(projects)
	emit(w, projects, f, func(w io.Writer) {
		if len(projects) == 0 {
			fmt.Fprintln(w, "No projects")
			return
		}
		for _, p := range projects {
			fmt.Fprintln(w, p)
		}
	})
}

// printError prints an error message. Validation details are listed.
func printError(w io.Writer, err error, f string) {
	body := map[string]interface{}{"message": err.Error()}
	var details []string
	var de *domain.DomainError
	if errors.As(err, &de) {
		body["code"] = de.Code
		details = contextDetails(de.Context["details"])
		if details != nil {
			body["details"] = details
		}
	}

	emit(w, map[string]interface{}{"error": body}, f, func(w io.Writer) {
		fmt.Fprintf(w, "Error: %s\n", err.Error())
		for _, d := range details {
			fmt.Fprintf(w, "  - %s\n", d)
		}
	})
}

// printSuccess prints a success message
func printSuccess(w io.Writer, message string, f string) {
	emit(w, map[string]interface{}{"message": message}, f, func(w io.Writer) {
		fmt.Fprintln(w, message)
	})
}

// contextDetails reads validation details built locally ([]string) or
// decoded from a server response ([]interface{}).
func contextDetails(v interface{}) []string {
	switch d := v.(type) {
	case []string:
		return d
	case []interface{}:
		out := make([]string, 0, len(d))
		for _, item := range d {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

func assignee(t *domain.Task) string {
	if !t.IsAssigned() {
		return "-"
	}
	return truncate(t.AssigneeLabel(), 20)
}

// truncate truncates a string to the specified number of runes
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// parseDue accepts YYYY-MM-DD, or "today"/"tomorrow" relative to now.
func parseDue(s string, now time.Time) (string, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case "today":
		return now.Format("2006-01-02"), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("invalid due date %q: use YYYY-MM-DD, today or tomorrow", s)
	}
	return s, nil
}
