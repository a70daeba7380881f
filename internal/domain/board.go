package domain

import "sort"

// UnassignedKey identifies tasks without an assignee in filters, lanes and
// distributions.
const UnassignedKey = "unassigned"

// DefaultLaneID is the id of the single lane used when swimlanes are off.
const DefaultLaneID = "default"

// Swimlane is a computed horizontal band of the board.
type Swimlane struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Property    SwimlaneProperty `json:"property"`
	Value       *string          `json:"value"`
	IsCollapsed bool             `json:"is_collapsed"`
	TaskCount   int              `json:"task_count"`
	Tasks       []*Task          `json:"-"`
}

// DueDateRange holds the checked due-date flags of a column filter.
type DueDateRange struct {
	Overdue   bool `json:"overdue"`
	Today     bool `json:"today"`
	ThisWeek  bool `json:"this_week"`
	Later     bool `json:"later"`
	NoDueDate bool `json:"no_due_date"`
}

// Any reports whether at least one flag is checked.
func (r DueDateRange) Any() bool {
	return r.Overdue || r.Today || r.ThisWeek || r.Later || r.NoDueDate
}

// ColumnFilterOptions narrows the tasks shown in one column.
// Empty sets do not filter.
type ColumnFilterOptions struct {
	Assignees    []string     `json:"assignees,omitempty"`
	Priorities   []Priority   `json:"priorities,omitempty"`
	DueDateRange DueDateRange `json:"due_date_range"`
}

// SortCriterion is the task field a column is sorted by.
type SortCriterion string

const (
	SortByDueDate   SortCriterion = "dueDate"
	SortByPriority  SortCriterion = "priority"
	SortByTitle     SortCriterion = "title"
	SortByCreatedAt SortCriterion = "createdAt"
	SortByUpdatedAt SortCriterion = "updatedAt"
	SortByAssignee  SortCriterion = "assignee"
)

// IsValid checks if the criterion is known.
func (c SortCriterion) IsValid() bool {
	switch c {
	case SortByDueDate, SortByPriority, SortByTitle, SortByCreatedAt, SortByUpdatedAt, SortByAssignee:
		return true
	}
	return false
}

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ColumnSortOptions orders the tasks shown in one column.
type ColumnSortOptions struct {
	Criterion SortCriterion `json:"criterion"`
	Direction SortDirection `json:"direction"`
}

// ColumnView is the filter and sort state of one column.
type ColumnView struct {
	Filter *ColumnFilterOptions `json:"filter,omitempty"`
	Sort   *ColumnSortOptions   `json:"sort,omitempty"`
}

// ColumnViews maps status ids to their column view state.
type ColumnViews map[string]ColumnView

// Validate checks the sort options of every column.
func (v ColumnViews) Validate() error {
	var details []string
	for id, view := range v {
		if view.Sort != nil {
			if !view.Sort.Criterion.IsValid() {
				details = append(details, "column "+id+": unknown sort criterion "+string(view.Sort.Criterion))
			}
			if view.Sort.Direction != SortAsc && view.Sort.Direction != SortDesc {
				details = append(details, "column "+id+": sort direction must be asc or desc")
			}
		}
		if view.Filter != nil {
			for _, p := range view.Filter.Priorities {
				if !p.IsValid() {
					details = append(details, "column "+id+": unknown priority "+string(p))
				}
			}
		}
	}
	if len(details) > 0 {
		sort.Strings(details)
		return NewValidationError(details)
	}
	return nil
}
