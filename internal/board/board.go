package board

import (
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// BoardInput is everything needed to render one board.
type BoardInput struct {
	Tasks     []*domain.Task
	Statuses  []*domain.WorkflowStatus
	Groups    []*domain.ColumnGroup
	Settings  domain.WorkflowSettings
	Views     domain.ColumnViews
	Collapsed []string
	Now       time.Time
}

// ColumnSummary is a visible column with its column-wide task count.
type ColumnSummary struct {
	Status     *domain.WorkflowStatus `json:"status"`
	TaskCount  int                    `json:"task_count"`
	AtWipLimit bool                   `json:"at_wip_limit"`
	OverLimit  bool                   `json:"over_wip_limit"`
}

// Cell is the task list of one (swimlane, column) intersection.
type Cell struct {
	StatusID string         `json:"status_id"`
	Tasks    []*domain.Task `json:"tasks"`
}

// LaneView is one swimlane with a cell per visible column.
type LaneView struct {
	Lane  *domain.Swimlane `json:"lane"`
	Cells []Cell           `json:"cells"`
}

// View is a computed board.
type View struct {
	Settings domain.WorkflowSettings `json:"settings"`
	Columns  []ColumnSummary         `json:"columns"`
	Groups   []*domain.ColumnGroup   `json:"groups,omitempty"`
	Lanes    []LaneView              `json:"lanes"`
}

// VisibleStatuses returns the statuses shown as columns, in order. Archived
// statuses are hidden unless settings show them.
func VisibleStatuses(statuses []*domain.WorkflowStatus, settings domain.WorkflowSettings) []*domain.WorkflowStatus {
	out := make([]*domain.WorkflowStatus, 0, len(statuses))
	for _, s := range statuses {
		if s.IsArchived && !settings.ShowArchivedColumns {
			continue
		}
		out = append(out, s)
	}
	domain.SortStatuses(out)
	return out
}

// BuildBoard partitions the tasks into swimlanes and fills every cell.
func (q *QueryEngine) BuildBoard(in BoardInput) *View {
	columns := VisibleStatuses(in.Statuses, in.Settings)
	lanes := Partition(in.Tasks, in.Settings.SwimlaneProperty, in.Collapsed, in.Now)

	view := &View{Settings: in.Settings, Groups: in.Groups}
	for _, s := range columns {
		n := len(TasksInStatus(in.Tasks, s.ID))
		summary := ColumnSummary{Status: s, TaskCount: n}
		if s.WipLimit != nil {
			summary.AtWipLimit = n >= *s.WipLimit
			summary.OverLimit = n > *s.WipLimit
		}
		view.Columns = append(view.Columns, summary)
	}

	for _, lane := range lanes.Lanes {
		lv := LaneView{Lane: lane, Cells: make([]Cell, 0, len(columns))}
		for _, s := range columns {
			tasks := q.TasksForCell(lane.ID, s.ID, in.Tasks, in.Views, lanes, in.Now)
			if tasks == nil {
				tasks = []*domain.Task{}
			}
			lv.Cells = append(lv.Cells, Cell{StatusID: s.ID, Tasks: tasks})
		}
		view.Lanes = append(view.Lanes, lv)
	}
	return view
}
