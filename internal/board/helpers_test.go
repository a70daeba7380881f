package board

import (
	"fmt"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// base is the evaluation instant used by most tests: a Wednesday afternoon.
var base = time.Date(2024, 6, 12, 15, 30, 0, 0, time.UTC)

func day(offset int) *time.Time {
	d := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	return &d
}

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

type taskOpt func(*domain.Task)

func assignee(id, name string) taskOpt {
	return func(t *domain.Task) { t.SetAssignee(id, name) }
}

func due(d *time.Time) taskOpt {
	return func(t *domain.Task) { t.DueDate = d }
}

func priority(p domain.Priority) taskOpt {
	return func(t *domain.Task) { t.Priority = p }
}

func title(s string) taskOpt {
	return func(t *domain.Task) { t.Title = s }
}

func created(at time.Time) taskOpt {
	return func(t *domain.Task) { t.CreatedAt = at; t.UpdatedAt = at }
}

func mkTask(id, status string, opts ...taskOpt) *domain.Task {
	t := &domain.Task{
		ID:        id,
		Title:     "task " + id,
		Priority:  domain.PriorityMedium,
		CreatedAt: base.Add(-48 * time.Hour),
		UpdatedAt: base.Add(-48 * time.Hour),
	}
	t.StatusID = &status
	for _, o := range opts {
		o(t)
	}
	return t
}

func ids(tasks []*domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("hist-%03d", n)
	}
}

func workflow() []*domain.WorkflowStatus {
	return []*domain.WorkflowStatus{
		{ID: "todo", Name: "To Do", Order: 0, IsDefault: true},
		{ID: "doing", Name: "In Progress", Order: 1},
		{ID: "review", Name: "Review", Order: 2},
		{ID: "done", Name: "Done", Order: 3},
		{ID: "old", Name: "Legacy QA", Order: 4, IsArchived: true},
	}
}
