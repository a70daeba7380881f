package board

import (
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/airyra/flowboard/internal/domain"
)

// QueryEngine computes the task list of board cells.
type QueryEngine struct {
	locale language.Tag
}

// NewQueryEngine creates a query engine. WithLocale selects the collation
// used for title and assignee sorting.
func NewQueryEngine(opts ...Option) *QueryEngine {
	o := buildOptions(opts)
	return &QueryEngine{locale: o.locale}
}

// TasksForCell returns the tasks shown in one (swimlane, status) cell. The
// pipeline is fixed: select by status, apply the column's filter, apply the
// column's sort, then keep the tasks of the swimlane when lanes are active.
// The result is deterministic for identical inputs.
func (q *QueryEngine) TasksForCell(swimlaneID, statusID string, all []*domain.Task, views domain.ColumnViews, lanes *Swimlanes, now time.Time) []*domain.Task {
	cell := TasksInStatus(all, statusID)

	view := views[statusID]
	if view.Filter != nil {
		cell = filterTasks(cell, *view.Filter, boundsAt(now))
	}
	if view.Sort != nil {
		q.SortTasks(cell, *view.Sort)
	}
	if lanes.Active() {
		cell = slices.DeleteFunc(cell, func(t *domain.Task) bool {
			return !lanes.Contains(swimlaneID, t)
		})
	}
	return cell
}

// FilterTasks returns the tasks passing filter, in their original order.
func FilterTasks(tasks []*domain.Task, filter domain.ColumnFilterOptions, now time.Time) []*domain.Task {
	return filterTasks(tasks, filter, boundsAt(now))
}

func filterTasks(tasks []*domain.Task, f domain.ColumnFilterOptions, b dayBounds) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if matchesFilter(t, f, b) {
			out = append(out, t)
		}
	}
	return out
}

func matchesFilter(t *domain.Task, f domain.ColumnFilterOptions, b dayBounds) bool {
	if len(f.Assignees) > 0 && !slices.Contains(f.Assignees, t.AssigneeKey()) {
		return false
	}
	if len(f.Priorities) > 0 && !slices.Contains(f.Priorities, t.Priority) {
		return false
	}
	if r := f.DueDateRange; r.Any() {
		if t.DueDate == nil {
			return r.NoDueDate
		}
		return (r.Overdue && b.isOverdue(t.DueDate)) ||
			(r.Today && b.isToday(t.DueDate)) ||
			(r.ThisWeek && b.inThisWeek(t.DueDate)) ||
			(r.Later && b.isLater(t.DueDate))
	}
	return true
}

// SortTasks sorts tasks in place. The sort is stable; null due dates and
// assignees go after known values ascending and before them descending.
func (q *QueryEngine) SortTasks(tasks []*domain.Task, opts domain.ColumnSortOptions) {
	compare := q.comparator(opts.Criterion)
	if compare == nil {
		return
	}
	slices.SortStableFunc(tasks, func(a, b *domain.Task) int {
		c := compare(a, b)
		if opts.Direction == domain.SortDesc {
			return -c
		}
		return c
	})
}

func (q *QueryEngine) comparator(c domain.SortCriterion) func(a, b *domain.Task) int {
	switch c {
	case domain.SortByDueDate:
		return func(a, b *domain.Task) int {
			return nullsLast(a.DueDate, b.DueDate, time.Time.Compare)
		}
	case domain.SortByPriority:
		return func(a, b *domain.Task) int {
			return a.Priority.Weight() - b.Priority.Weight()
		}
	case domain.SortByTitle:
		col := collate.New(q.locale)
		return func(a, b *domain.Task) int {
			return col.CompareString(a.Title, b.Title)
		}
	case domain.SortByCreatedAt:
		return func(a, b *domain.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		}
	case domain.SortByUpdatedAt:
		return func(a, b *domain.Task) int {
			return a.UpdatedAt.Compare(b.UpdatedAt)
		}
	case domain.SortByAssignee:
		col := collate.New(q.locale)
		return func(a, b *domain.Task) int {
			return nullsLast(assigneeSortName(a), assigneeSortName(b), col.CompareString)
		}
	}
	return nil
}

func assigneeSortName(t *domain.Task) *string {
	if !t.IsAssigned() {
		return nil
	}
	name := t.AssigneeLabel()
	return &name
}

// nullsLast orders nil after every non-nil value.
func nullsLast[T any](a, b *T, compare func(T, T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return compare(*a, *b)
	}
}
