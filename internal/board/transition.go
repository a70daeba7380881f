package board

import (
	"errors"
	"fmt"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// Decision is the outcome of a transition check.
type Decision struct {
	Allowed bool
	// NoOp is set when every task is already in the target status.
	NoOp   bool
	Reason *domain.DomainError
}

// Err returns the rejection reason as an error, or nil when allowed.
func (d Decision) Err() error {
	if d.Reason == nil {
		return nil
	}
	return d.Reason
}

// CanTransition decides whether task may move from one status to another.
// Rules apply in order: archived targets are rejected, same-status moves are
// allowed no-ops, then the target's WIP limit is checked when settings
// enforce it. tasksInTarget must hold every task currently in the target
// status across all swimlanes; WIP limits are column-wide.
func CanTransition(task *domain.Task, from, to *domain.WorkflowStatus, settings domain.WorkflowSettings, tasksInTarget []*domain.Task) Decision {
	if to.IsArchived {
		return Decision{Reason: domain.NewArchivedTargetError(to.ID, to.Name)}
	}
	if (from != nil && from.ID == to.ID) || (from == nil && task.StatusKey() == to.ID) {
		return Decision{Allowed: true, NoOp: true}
	}
	if settings.EnforceWipLimits && to.WipLimit != nil {
		current := 0
		for _, t := range tasksInTarget {
			if t.ID != task.ID {
				current++
			}
		}
		if current >= *to.WipLimit {
			return Decision{Reason: domain.NewWipLimitExceededError(to.ID, *to.WipLimit, current, 1)}
		}
	}
	return Decision{Allowed: true}
}

// CanTransitionBulk decides whether all tasks may move into to together. The
// WIP check uses the pre-move count of the target plus the tasks about to be
// added; if the sum exceeds the limit the whole batch is rejected.
func CanTransitionBulk(tasks []*domain.Task, to *domain.WorkflowStatus, settings domain.WorkflowSettings, tasksInTarget []*domain.Task) Decision {
	if to.IsArchived {
		return Decision{Reason: domain.NewArchivedTargetError(to.ID, to.Name)}
	}

	inTarget := make(map[string]bool, len(tasksInTarget))
	for _, t := range tasksInTarget {
		inTarget[t.ID] = true
	}
	incoming := 0
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] || inTarget[t.ID] || t.StatusKey() == to.ID {
			continue
		}
		seen[t.ID] = true
		incoming++
	}
	if incoming == 0 {
		return Decision{Allowed: true, NoOp: true}
	}

	if settings.EnforceWipLimits && to.WipLimit != nil && len(inTarget)+incoming > *to.WipLimit {
		return Decision{Reason: domain.NewWipLimitExceededError(to.ID, *to.WipLimit, len(inTarget), incoming)}
	}
	return Decision{Allowed: true}
}

// TasksInStatus returns the tasks whose status is statusID.
func TasksInStatus(tasks []*domain.Task, statusID string) []*domain.Task {
	var out []*domain.Task
	for _, t := range tasks {
		if t.StatusKey() == statusID {
			out = append(out, t)
		}
	}
	return out
}

type transitionState int

const (
	statePending transitionState = iota
	stateApplied
	stateRolledBack
	stateReverted
)

var (
	errAlreadyApplied = errors.New("transition already applied")
	errNotApplied     = errors.New("transition not applied")
)

// Transition is one accepted move of a task, applied as a single logical
// step: close the open history entry, open an entry for the target, set the
// task's status. It keeps the previous snapshot so an unconfirmed move can
// be rolled back and a confirmed one compensated.
type Transition struct {
	Task  *domain.Task
	From  *domain.WorkflowStatus
	To    *domain.WorkflowStatus
	At    time.Time
	Actor string

	// Closed and Opened are the history entries touched by Apply. Closed is
	// nil when the task had no open entry.
	Closed *domain.StatusHistoryEntry
	Opened *domain.StatusHistoryEntry

	previousTask    *domain.Task
	previousHistory []*domain.StatusHistoryEntry
	noop            bool
	state           transitionState
}

// NewTransition prepares a move of task into to. from may be nil when the
// task's current status is unknown.
func NewTransition(task *domain.Task, from, to *domain.WorkflowStatus, at time.Time) *Transition {
	return &Transition{Task: task, From: from, To: to, At: at}
}

// NoOp reports whether the task was already in the target status.
func (t *Transition) NoOp() bool {
	return t.noop
}

// Previous returns the task as it was before Apply.
func (t *Transition) Previous() *domain.Task {
	return t.previousTask
}

// Apply performs the move against task and h. On failure nothing is
// applied and a TransitionFailed error is returned.
func (t *Transition) Apply(h *History) (err error) {
	if t.Task == nil || t.To == nil {
		return domain.NewTransitionFailedError("", errors.New("transition needs a task and a target status"))
	}
	if t.state != statePending {
		return domain.NewTransitionFailedError(t.Task.ID, errAlreadyApplied)
	}

	t.previousTask = t.Task.Clone()
	t.previousHistory = h.snapshot(t.Task.ID)
	if t.Task.StatusKey() == t.To.ID {
		t.noop = true
		t.state = stateApplied
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			t.restore(h)
			err = domain.NewTransitionFailedError(t.Task.ID, fmt.Errorf("%v", r))
		}
	}()

	t.Closed = h.CloseOpenEntry(t.Task.ID, t.Task.StatusKey(), t.At)
	t.Opened = h.RecordEntry(t.Task.ID, t.To.ID, t.To.Name, t.At)
	t.Opened.ChangedBy = t.Actor
	t.Task.SetStatusKey(t.To.ID)
	t.Task.UpdatedAt = t.At
	t.state = stateApplied
	return nil
}

// Rollback restores the task and its history to the pre-Apply snapshot. It
// is for moves that were never confirmed; confirmed moves use Revert.
func (t *Transition) Rollback(h *History) {
	if t.state != stateApplied {
		return
	}
	t.restore(h)
	t.state = stateRolledBack
}

func (t *Transition) restore(h *History) {
	*t.Task = *t.previousTask.Clone()
	h.restore(t.Task.ID, t.previousHistory)
	t.Closed = nil
	t.Opened = nil
}

// Revert compensates a confirmed move at the given instant. The opened entry
// is closed and marked reverted, and the entry it replaced is reopened, so
// the attempted move stays in the audit trail.
func (t *Transition) Revert(h *History, at time.Time) (*Compensation, error) {
	if t.state != stateApplied {
		return nil, domain.NewTransitionFailedError(t.Task.ID, errNotApplied)
	}
	if t.noop {
		return nil, domain.NewNothingToRevertError(t.Task.ID)
	}

	c := &Compensation{Task: t.Task, Reverted: t.Opened}
	closeReverted(t.Opened, at)
	if t.Closed != nil {
		t.Closed.ExitedAt = nil
		c.Reopened = t.Closed
	} else {
		name := t.previousTask.StatusKey()
		if t.From != nil {
			name = t.From.Name
		}
		c.Reopened = h.RecordEntry(t.Task.ID, t.previousTask.StatusKey(), name, at)
		c.Reopened.ChangedBy = t.Actor
		c.Created = true
	}
	t.Task.SetStatusKey(t.previousTask.StatusKey())
	t.Task.UpdatedAt = at
	t.state = stateReverted
	return c, nil
}

// Compensation describes the history changes that undo a confirmed move.
// Reverted must be persisted before Reopened so the task never has two open
// entries.
type Compensation struct {
	Task     *domain.Task
	Reverted *domain.StatusHistoryEntry
	Reopened *domain.StatusHistoryEntry
	// Created is set when Reopened is a new entry rather than a reopened one.
	Created bool
}

// RevertLastMove compensates the task's most recent move recorded in h.
// isArchived reports whether a status may no longer receive tasks; reverting
// into such a status is rejected.
func RevertLastMove(h *History, task *domain.Task, at time.Time, isArchived func(statusID string) bool) (*Compensation, error) {
	previous, current := h.LastMove(task.ID)
	if previous == nil || current == nil {
		return nil, domain.NewNothingToRevertError(task.ID)
	}
	if isArchived != nil && isArchived(previous.StatusID) {
		return nil, domain.NewArchivedTargetError(previous.StatusID, previous.StatusName)
	}

	closeReverted(current, at)
	previous.ExitedAt = nil
	task.SetStatusKey(previous.StatusID)
	task.UpdatedAt = at
	return &Compensation{Task: task, Reverted: current, Reopened: previous}, nil
}

func closeReverted(e *domain.StatusHistoryEntry, at time.Time) {
	exit := at
	e.ExitedAt = &exit
	e.Reverted = true
}

// BulkTransition moves several tasks into one status, all or nothing.
type BulkTransition struct {
	Transitions []*Transition
}

// NewBulkTransition prepares moves of tasks into to. lookup resolves each
// task's current status and may return nil.
func NewBulkTransition(tasks []*domain.Task, lookup func(statusID string) *domain.WorkflowStatus, to *domain.WorkflowStatus, at time.Time, actor string) *BulkTransition {
	b := &BulkTransition{}
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if seen[task.ID] {
			continue
		}
		seen[task.ID] = true
		tr := NewTransition(task, lookup(task.StatusKey()), to, at)
		tr.Actor = actor
		b.Transitions = append(b.Transitions, tr)
	}
	return b
}

// Apply applies every move. If one fails, the moves already applied are
// rolled back and a single TransitionFailed error is returned.
func (b *BulkTransition) Apply(h *History) error {
	for i, tr := range b.Transitions {
		if err := tr.Apply(h); err != nil {
			for j := i - 1; j >= 0; j-- {
				b.Transitions[j].Rollback(h)
			}
			return err
		}
	}
	return nil
}

// Rollback undoes every applied move, last first.
func (b *BulkTransition) Rollback(h *History) {
	for i := len(b.Transitions) - 1; i >= 0; i-- {
		b.Transitions[i].Rollback(h)
	}
}

// Changed returns the moves that actually changed a task's status.
func (b *BulkTransition) Changed() []*Transition {
	var out []*Transition
	for _, tr := range b.Transitions {
		if tr.state == stateApplied && !tr.noop {
			out = append(out, tr)
		}
	}
	return out
}
