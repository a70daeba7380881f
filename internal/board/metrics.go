package board

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// DurationStats summarises a set of durations. Labels use whole hours below
// one day and whole days otherwise; an empty set is labelled "-".
type DurationStats struct {
	Count        int           `json:"count"`
	Average      time.Duration `json:"average"`
	Median       time.Duration `json:"median"`
	Min          time.Duration `json:"min"`
	Max          time.Duration `json:"max"`
	AverageLabel string        `json:"average_label"`
	MedianLabel  string        `json:"median_label"`
	MinLabel     string        `json:"min_label"`
	MaxLabel     string        `json:"max_label"`
}

// FormatDuration renders d as "Nh" when under a day, "Nd" otherwise.
func FormatDuration(d time.Duration) string {
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

func durationStats(ds []time.Duration) DurationStats {
	if len(ds) == 0 {
		return DurationStats{AverageLabel: "-", MedianLabel: "-", MinLabel: "-", MaxLabel: "-"}
	}
	sorted := slices.Clone(ds)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	s := DurationStats{
		Count:   n,
		Average: total / time.Duration(n),
		Median:  median,
		Min:     sorted[0],
		Max:     sorted[n-1],
	}
	s.AverageLabel = FormatDuration(s.Average)
	s.MedianLabel = FormatDuration(s.Median)
	s.MinLabel = FormatDuration(s.Min)
	s.MaxLabel = FormatDuration(s.Max)
	return s
}

// AgingCounts counts tasks past a column's aging thresholds. A task counted
// as critical is not also counted as warning.
type AgingCounts struct {
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// ColumnMetrics are the derived statistics of one column.
type ColumnMetrics struct {
	StatusID             string         `json:"status_id"`
	StatusName           string         `json:"status_name"`
	TaskCount            int            `json:"task_count"`
	TimeInColumn         DurationStats  `json:"time_in_column"`
	CompletionRate       float64        `json:"completion_rate"`
	OverdueCount         int            `json:"overdue_count"`
	AssigneeDistribution map[string]int `json:"assignee_distribution"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
	Aging                AgingCounts    `json:"aging"`
}

// SwimlaneMetrics are the derived statistics of one swimlane's tasks.
type SwimlaneMetrics struct {
	SwimlaneID           string         `json:"swimlane_id"`
	Title                string         `json:"title"`
	TaskCount            int            `json:"task_count"`
	Completed            int            `json:"completed"`
	InProgress           int            `json:"in_progress"`
	Todo                 int            `json:"todo"`
	Blocked              int            `json:"blocked"`
	Uncategorized        int            `json:"uncategorized"`
	CompletionRate       float64        `json:"completion_rate"`
	OverdueCount         int            `json:"overdue_count"`
	StatusDistribution   map[string]int `json:"status_distribution"`
	AssigneeDistribution map[string]int `json:"assignee_distribution"`
	PriorityDistribution map[string]int `json:"priority_distribution"`
}

// MetricsCalculator derives column and swimlane metrics.
type MetricsCalculator struct {
	keywords domain.CategoryKeywords
}

// NewMetricsCalculator creates a calculator. WithCategoryKeywords controls how
// statuses without an explicit category are classified.
func NewMetricsCalculator(opts ...Option) *MetricsCalculator {
	o := buildOptions(opts)
	return &MetricsCalculator{keywords: o.keywords}
}

// ColumnMetrics computes the metrics of status over the tasks in it. tasks
// may contain tasks of other statuses; they are ignored. Time in column is
// measured from the task's open history entry for status, or from its
// creation when h has none, up to now.
func (m *MetricsCalculator) ColumnMetrics(tasks []*domain.Task, status *domain.WorkflowStatus, h *History, now time.Time) ColumnMetrics {
	b := boundsAt(now)
	done := status.ResolvedCategory(m.keywords) == domain.CategoryDone
	cm := ColumnMetrics{
		StatusID:             status.ID,
		StatusName:           status.Name,
		AssigneeDistribution: map[string]int{},
		PriorityDistribution: map[string]int{},
	}

	var durations []time.Duration
	for _, t := range TasksInStatus(tasks, status.ID) {
		cm.TaskCount++
		cm.AssigneeDistribution[t.AssigneeLabel()]++
		cm.PriorityDistribution[string(t.Priority)]++
		if !done && b.isOverdue(t.DueDate) {
			cm.OverdueCount++
		}

		entered := t.CreatedAt
		if h != nil {
			if at, ok := h.EnteredAt(t.ID, status.ID); ok {
				entered = at
			}
		}
		d := now.Sub(entered)
		if d < 0 {
			d = 0
		}
		durations = append(durations, d)

		if a := status.AgingThresholds; a != nil {
			switch {
			case a.CriticalHours > 0 && d >= time.Duration(a.CriticalHours)*time.Hour:
				cm.Aging.Critical++
			case a.WarningHours > 0 && d >= time.Duration(a.WarningHours)*time.Hour:
				cm.Aging.Warning++
			}
		}
	}

	cm.TimeInColumn = durationStats(durations)
	if done && cm.TaskCount > 0 {
		cm.CompletionRate = 100
	}
	return cm
}

// SwimlaneMetrics computes the metrics of a lane's tasks. Tasks are bucketed
// into completed, in progress, todo and blocked by their status category;
// tasks whose status matches no category are only counted as uncategorized.
func (m *MetricsCalculator) SwimlaneMetrics(lane *domain.Swimlane, statuses []*domain.WorkflowStatus, now time.Time) SwimlaneMetrics {
	b := boundsAt(now)
	sm := SwimlaneMetrics{
		SwimlaneID:           lane.ID,
		Title:                lane.Title,
		StatusDistribution:   map[string]int{},
		AssigneeDistribution: map[string]int{},
		PriorityDistribution: map[string]int{},
	}

	byID := make(map[string]*domain.WorkflowStatus, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	for _, t := range lane.Tasks {
		sm.TaskCount++
		sm.AssigneeDistribution[t.AssigneeLabel()]++
		sm.PriorityDistribution[string(t.Priority)]++

		key := t.StatusKey()
		category := m.keywords.Classify(key)
		name := key
		if s := byID[key]; s != nil {
			category = s.ResolvedCategory(m.keywords)
			name = s.Name
		}
		sm.StatusDistribution[name]++

		switch category {
		case domain.CategoryDone:
			sm.Completed++
		case domain.CategoryInProgress:
			sm.InProgress++
		case domain.CategoryTodo:
			sm.Todo++
		case domain.CategoryBlocked:
			sm.Blocked++
		default:
			sm.Uncategorized++
		}
		if category != domain.CategoryDone && b.isOverdue(t.DueDate) {
			sm.OverdueCount++
		}
	}

	if sm.TaskCount > 0 {
		sm.CompletionRate = math.Round(float64(sm.Completed)/float64(sm.TaskCount)*1000) / 10
	}
	return sm
}
