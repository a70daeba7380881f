package domain

import (
	"time"

	"github.com/airyra/flowboard/pkg/idgen"
)

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// ValidPriorities lists priorities from most to least urgent.
var ValidPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// IsValid checks if the priority is a known value.
func (p Priority) IsValid() bool {
	for _, v := range ValidPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Weight orders priorities: HIGH(3) > MEDIUM(2) > LOW(1). Unknown values weigh 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// LegacyStatus is the fixed status enum used by boards without a custom workflow.
type LegacyStatus string

const (
	StatusTodo       LegacyStatus = "TODO"
	StatusInProgress LegacyStatus = "IN_PROGRESS"
	StatusInReview   LegacyStatus = "IN_REVIEW"
	StatusDone       LegacyStatus = "DONE"
	StatusBlocked    LegacyStatus = "BLOCKED"
)

// ValidLegacyStatuses contains the legacy statuses in board order.
var ValidLegacyStatuses = []LegacyStatus{StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusBlocked}

// IsValid checks if the status is a legacy status value.
func (s LegacyStatus) IsValid() bool {
	for _, v := range ValidLegacyStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task is the unit of work shown on the board.
//
// A task lives either in a legacy status (Status) or in a custom workflow
// status (StatusID). StatusID wins when both are set.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Priority     Priority     `json:"priority"`
	Status       LegacyStatus `json:"status,omitempty"`
	StatusID     *string      `json:"status_id,omitempty"`
	AssigneeID   *string      `json:"assignee_id,omitempty"`
	AssigneeName *string      `json:"assignee_name,omitempty"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewTask creates a TODO task with medium priority.
func NewTask(title string) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        idgen.MustGenerate(idgen.TaskPrefix),
		Title:     title,
		Priority:  PriorityMedium,
		Status:    StatusTodo,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// StatusKey returns the identifier of the status the task currently occupies.
func (t *Task) StatusKey() string {
	if t.StatusID != nil && *t.StatusID != "" {
		return *t.StatusID
	}
	return string(t.Status)
}

// SetStatusKey moves the task into the status identified by key. Tasks that
// already use custom statuses, or keys that are not legacy values, are
// written to StatusID.
func (t *Task) SetStatusKey(key string) {
	if t.StatusID == nil && LegacyStatus(key).IsValid() {
		t.Status = LegacyStatus(key)
		return
	}
	t.StatusID = &key
}

// IsAssigned reports whether the task has an assignee.
func (t *Task) IsAssigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// AssigneeKey returns the assignee id, or UnassignedKey.
func (t *Task) AssigneeKey() string {
	if !t.IsAssigned() {
		return UnassignedKey
	}
	return *t.AssigneeID
}

// AssigneeLabel returns the assignee name (falling back to the id), or UnassignedKey.
func (t *Task) AssigneeLabel() string {
	if t.AssigneeName != nil && *t.AssigneeName != "" {
		return *t.AssigneeName
	}
	return t.AssigneeKey()
}

// SetAssignee sets both assignee fields. An empty id clears the assignee.
func (t *Task) SetAssignee(id, name string) {
	if id == "" {
		t.AssigneeID = nil
		t.AssigneeName = nil
		return
	}
	t.AssigneeID = &id
	if name != "" {
		t.AssigneeName = &name
	} else {
		t.AssigneeName = nil
	}
}

// SetDueDate sets the due date truncated to its calendar day.
func (t *Task) SetDueDate(d time.Time) {
	y, m, day := d.Date()
	due := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	t.DueDate = &due
}

// SetDescription sets the task description.
func (t *Task) SetDescription(desc string) {
	t.Description = &desc
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.Description = cloneString(t.Description)
	c.StatusID = cloneString(t.StatusID)
	c.AssigneeID = cloneString(t.AssigneeID)
	c.AssigneeName = cloneString(t.AssigneeName)
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
