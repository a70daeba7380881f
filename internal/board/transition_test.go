package board

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/airyra/flowboard/internal/domain"
)

func TestCanTransition(t *testing.T) {
	enforce := domain.WorkflowSettings{EnforceWipLimits: true}
	todo := &domain.WorkflowStatus{ID: "todo", Name: "To Do"}
	full := []*domain.Task{mkTask("a", "doing"), mkTask("b", "doing")}

	tests := []struct {
		name     string
		to       *domain.WorkflowStatus
		settings domain.WorkflowSettings
		inTarget []*domain.Task
		allowed  bool
		noop     bool
		reason   error
	}{
		{
			name:     "archived target rejected",
			to:       &domain.WorkflowStatus{ID: "old", IsArchived: true},
			settings: enforce,
			reason:   domain.ErrArchivedTarget,
		},
		{
			name:     "archived target rejected without WIP enforcement",
			to:       &domain.WorkflowStatus{ID: "old", IsArchived: true, WipLimit: intp(10)},
			settings: domain.WorkflowSettings{},
			reason:   domain.ErrArchivedTarget,
		},
		{
			name:     "same status is a no-op",
			to:       todo,
			settings: enforce,
			allowed:  true,
			noop:     true,
		},
		{
			name:     "WIP limit reached",
			to:       &domain.WorkflowStatus{ID: "doing", WipLimit: intp(2)},
			settings: enforce,
			inTarget: full,
			reason:   domain.ErrWipLimitExceeded,
		},
		{
			name:     "WIP limit with room",
			to:       &domain.WorkflowStatus{ID: "doing", WipLimit: intp(3)},
			settings: enforce,
			inTarget: full,
			allowed:  true,
		},
		{
			name:     "no WIP limit",
			to:       &domain.WorkflowStatus{ID: "doing"},
			settings: enforce,
			inTarget: full,
			allowed:  true,
		},
		{
			name:     "WIP limit not enforced",
			to:       &domain.WorkflowStatus{ID: "doing", WipLimit: intp(2)},
			settings: domain.WorkflowSettings{},
			inTarget: full,
			allowed:  true,
		},
		{
			name:     "zero WIP limit blocks everything",
			to:       &domain.WorkflowStatus{ID: "doing", WipLimit: intp(0)},
			settings: enforce,
			reason:   domain.ErrWipLimitExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := mkTask("moving", "todo")
			d := CanTransition(task, todo, tt.to, tt.settings, tt.inTarget)
			if d.Allowed != tt.allowed || d.NoOp != tt.noop {
				t.Errorf("CanTransition() = %+v, want allowed=%v noop=%v", d, tt.allowed, tt.noop)
			}
			if tt.reason != nil && !errors.Is(d.Err(), tt.reason) {
				t.Errorf("reason = %v, want %v", d.Err(), tt.reason)
			}
			if tt.reason == nil && d.Err() != nil {
				t.Errorf("unexpected reason %v", d.Err())
			}
		})
	}
}

func TestCanTransition_CountIsColumnWide(t *testing.T) {
	// Two tasks in different swimlanes still fill a column limited to two.
	inTarget := []*domain.Task{
		mkTask("a", "doing", assignee("u1", "Ada")),
		mkTask("b", "doing"),
	}
	to := &domain.WorkflowStatus{ID: "doing", WipLimit: intp(2)}
	task := mkTask("c", "todo", assignee("u1", "Ada"))

	d := CanTransition(task, nil, to, domain.WorkflowSettings{EnforceWipLimits: true}, inTarget)
	if d.Allowed {
		t.Error("WIP limit must count tasks across all swimlanes")
	}
}

func TestCanTransitionBulk(t *testing.T) {
	enforce := domain.WorkflowSettings{EnforceWipLimits: true}
	inTarget := []*domain.Task{mkTask("a", "doing"), mkTask("b", "doing")}
	moving := []*domain.Task{mkTask("x", "todo"), mkTask("y", "todo"), mkTask("z", "todo")}

	d := CanTransitionBulk(moving, &domain.WorkflowStatus{ID: "doing", WipLimit: intp(4)}, enforce, inTarget)
	if d.Allowed || !errors.Is(d.Err(), domain.ErrWipLimitExceeded) {
		t.Errorf("2+3 > 4 should be rejected, got %+v", d)
	}

	d = CanTransitionBulk(moving, &domain.WorkflowStatus{ID: "doing", WipLimit: intp(5)}, enforce, inTarget)
	if !d.Allowed {
		t.Errorf("2+3 <= 5 should be allowed, got %v", d.Err())
	}

	// Tasks already in the target do not count as incoming.
	withResident := append([]*domain.Task{inTarget[0]}, moving[:2]...)
	d = CanTransitionBulk(withResident, &domain.WorkflowStatus{ID: "doing", WipLimit: intp(4)}, enforce, inTarget)
	if !d.Allowed {
		t.Errorf("2+2 <= 4 should be allowed, got %v", d.Err())
	}

	d = CanTransitionBulk(inTarget, &domain.WorkflowStatus{ID: "doing", WipLimit: intp(1)}, enforce, inTarget)
	if !d.Allowed || !d.NoOp {
		t.Errorf("moving resident tasks should be a no-op, got %+v", d)
	}

	d = CanTransitionBulk(moving, &domain.WorkflowStatus{ID: "old", IsArchived: true}, domain.WorkflowSettings{}, nil)
	if !errors.Is(d.Err(), domain.ErrArchivedTarget) {
		t.Errorf("archived bulk target: got %v", d.Err())
	}
}

func TestEngine_MoveBulk_RejectsWholeBatch(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	h := e.NewHistory()
	statuses := []*domain.WorkflowStatus{
		{ID: "todo", Name: "To Do", IsDefault: true},
		{ID: "doing", Name: "Doing", Order: 1, WipLimit: intp(4)},
	}
	all := []*domain.Task{
		mkTask("a", "doing"), mkTask("b", "doing"),
		mkTask("x", "todo"), mkTask("y", "todo"), mkTask("z", "todo"),
	}
	for _, task := range all {
		h.OnTaskCreated(task, domain.FindStatus(statuses, task.StatusKey()))
	}
	before := len(h.All())

	_, err := e.MoveBulk(BulkMoveRequest{
		Moving:   all[2:],
		ToStatus: "doing",
		Statuses: statuses,
		Settings: domain.WorkflowSettings{EnforceWipLimits: true},
		Tasks:    all,
		History:  h,
		At:       base,
	})
	if !errors.Is(err, domain.ErrWipLimitExceeded) {
		t.Fatalf("MoveBulk() error = %v, want WIP limit exceeded", err)
	}
	for _, task := range all[2:] {
		if task.StatusKey() != "todo" {
			t.Errorf("task %s moved to %s despite rejection", task.ID, task.StatusKey())
		}
	}
	if len(h.All()) != before {
		t.Error("rejected batch must not write history")
	}
}

func TestEngine_MoveBulk_AppliesAll(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	h := e.NewHistory()
	statuses := workflow()
	moving := []*domain.Task{mkTask("x", "todo"), mkTask("y", "doing"), mkTask("x", "todo")}

	bt, err := e.MoveBulk(BulkMoveRequest{
		Moving: moving, ToStatus: "done", Statuses: statuses, Tasks: moving, History: h, At: base,
	})
	if err != nil {
		t.Fatalf("MoveBulk() error: %v", err)
	}
	if got := len(bt.Changed()); got != 2 {
		t.Errorf("Changed() = %d moves, want 2 (duplicate id skipped)", got)
	}
	if moving[0].StatusKey() != "done" || moving[1].StatusKey() != "done" {
		t.Error("all tasks should be in done")
	}
}

func TestEngine_Move(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	h := e.NewHistory()
	statuses := workflow()
	task := mkTask("t1", "todo")
	h.OnTaskCreated(task, statuses[0])

	tr, err := e.Move(MoveRequest{
		Task: task, ToStatus: "doing", Statuses: statuses, Tasks: []*domain.Task{task},
		History: h, At: base, Actor: "ada",
	})
	if err != nil {
		t.Fatalf("Move() error: %v", err)
	}
	if task.StatusKey() != "doing" || !task.UpdatedAt.Equal(base) {
		t.Errorf("task status=%s updated=%v", task.StatusKey(), task.UpdatedAt)
	}
	if tr.Closed == nil || tr.Closed.StatusID != "todo" || !tr.Closed.ExitedAt.Equal(base) {
		t.Errorf("closed entry = %+v", tr.Closed)
	}
	if tr.Opened.StatusID != "doing" || tr.Opened.StatusName != "In Progress" || tr.Opened.ChangedBy != "ada" {
		t.Errorf("opened entry = %+v", tr.Opened)
	}

	if _, err := e.Move(MoveRequest{Task: task, ToStatus: "old", Statuses: statuses, History: h, At: base}); !errors.Is(err, domain.ErrArchivedTarget) {
		t.Errorf("move into archived: got %v", err)
	}
	if _, err := e.Move(MoveRequest{Task: task, ToStatus: "nope", Statuses: statuses, History: h, At: base}); !errors.Is(err, domain.ErrStatusNotFound) {
		t.Errorf("move into unknown: got %v", err)
	}
	if task.StatusKey() != "doing" || h.OpenCount("t1") != 1 {
		t.Error("rejected moves must leave the task untouched")
	}
}

func TestTransition_RollbackRestoresSnapshot(t *testing.T) {
	h := newTestHistory(nil)
	task := mkTask("t1", "todo")
	h.RecordEntry("t1", "todo", "To Do", base.Add(-time.Hour))
	before := task.Clone()
	historyBefore := h.snapshot("t1")

	tr := NewTransition(task, nil, &domain.WorkflowStatus{ID: "doing", Name: "Doing"}, base)
	if err := tr.Apply(h); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	tr.Rollback(h)

	if diff := cmp.Diff(before, task); diff != "" {
		t.Errorf("task not restored (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(historyBefore, h.Entries("t1")); diff != "" {
		t.Errorf("history not restored (-want +got):\n%s", diff)
	}
}

func TestTransition_ApplyTwiceFails(t *testing.T) {
	h := newTestHistory(nil)
	tr := NewTransition(mkTask("t1", "todo"), nil, &domain.WorkflowStatus{ID: "doing"}, base)
	if err := tr.Apply(h); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if err := tr.Apply(h); !errors.Is(err, domain.ErrTransitionFailed) {
		t.Errorf("second Apply() = %v, want TransitionFailed", err)
	}
}

func TestTransition_ApplyPanicLeavesPriorState(t *testing.T) {
	calls := 0
	h := NewHistory(WithIDGenerator(func() string {
		calls++
		if calls > 1 {
			panic("entropy exhausted")
		}
		return "hist-1"
	}))
	task := mkTask("t1", "todo")
	h.RecordEntry("t1", "todo", "To Do", base.Add(-time.Hour))

	tr := NewTransition(task, nil, &domain.WorkflowStatus{ID: "doing"}, base)
	err := tr.Apply(h)
	if !errors.Is(err, domain.ErrTransitionFailed) {
		t.Fatalf("Apply() = %v, want TransitionFailed", err)
	}
	if task.StatusKey() != "todo" {
		t.Errorf("task moved to %s despite failure", task.StatusKey())
	}
	open := h.OpenEntry("t1")
	if open == nil || open.StatusID != "todo" {
		t.Errorf("prior open entry should be restored, got %+v", open)
	}
}

func TestTransition_RevertKeepsAuditTrail(t *testing.T) {
	h := newTestHistory(nil)
	task := mkTask("t1", "todo")
	h.RecordEntry("t1", "todo", "To Do", base.Add(-time.Hour))

	tr := NewTransition(task, nil, &domain.WorkflowStatus{ID: "doing", Name: "Doing"}, base)
	if err := tr.Apply(h); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	revertAt := base.Add(time.Minute)
	c, err := tr.Revert(h, revertAt)
	if err != nil {
		t.Fatalf("Revert() error: %v", err)
	}

	if task.StatusKey() != "todo" {
		t.Errorf("task status = %s, want todo", task.StatusKey())
	}
	entries := h.Entries("t1")
	if len(entries) != 2 {
		t.Fatalf("compensation must not delete entries, got %d", len(entries))
	}
	if !c.Reverted.Reverted || !c.Reverted.ExitedAt.Equal(revertAt) {
		t.Errorf("attempted entry should be closed and marked reverted: %+v", c.Reverted)
	}
	if c.Reopened.StatusID != "todo" || !c.Reopened.IsOpen() || c.Created {
		t.Errorf("previous entry should be reopened: %+v", c.Reopened)
	}
	if h.OpenCount("t1") != 1 {
		t.Errorf("OpenCount() = %d, want 1", h.OpenCount("t1"))
	}
	if _, err := tr.Revert(h, revertAt); !errors.Is(err, domain.ErrTransitionFailed) {
		t.Errorf("second Revert() = %v", err)
	}
}

func TestTransition_RevertWithoutPriorEntryOpensFreshOne(t *testing.T) {
	h := newTestHistory(nil)
	task := mkTask("t1", "todo")
	from := &domain.WorkflowStatus{ID: "todo", Name: "To Do"}

	tr := NewTransition(task, from, &domain.WorkflowStatus{ID: "doing", Name: "Doing"}, base)
	if err := tr.Apply(h); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if tr.Closed != nil {
		t.Fatalf("no entry should have been closed")
	}
	c, err := tr.Revert(h, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("Revert() error: %v", err)
	}
	if !c.Created || c.Reopened.StatusName != "To Do" || !c.Reopened.IsOpen() {
		t.Errorf("expected a fresh entry for To Do, got %+v", c.Reopened)
	}
}

func TestRevertLastMove(t *testing.T) {
	h := newTestHistory(nil)
	task := mkTask("t1", "todo")
	h.RecordEntry("t1", "todo", "To Do", base.Add(-time.Hour))
	tr := NewTransition(task, nil, &domain.WorkflowStatus{ID: "doing", Name: "Doing"}, base)
	if err := tr.Apply(h); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	archived := func(id string) bool { return id == "todo" }
	if _, err := RevertLastMove(h, task, base.Add(time.Minute), archived); !errors.Is(err, domain.ErrArchivedTarget) {
		t.Errorf("revert into archived: got %v", err)
	}
	if task.StatusKey() != "doing" {
		t.Fatal("rejected revert must not change the task")
	}

	c, err := RevertLastMove(h, task, base.Add(time.Minute), nil)
	if err != nil {
		t.Fatalf("RevertLastMove() error: %v", err)
	}
	if task.StatusKey() != "todo" || c.Reopened.StatusID != "todo" || !c.Reverted.Reverted {
		t.Errorf("unexpected compensation %+v", c)
	}
	if _, err := RevertLastMove(h, task, base.Add(2*time.Minute), nil); err == nil {
		t.Error("a task back at its first status has nothing to revert")
	}
}
