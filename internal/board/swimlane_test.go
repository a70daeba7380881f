package board

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/airyra/flowboard/internal/domain"
)

func laneIDs(s *Swimlanes) []string {
	out := make([]string, 0, len(s.Lanes))
	for _, l := range s.Lanes {
		out = append(out, l.ID)
	}
	return out
}

func TestPartition_DueDate(t *testing.T) {
	tasks := []*domain.Task{
		mkTask("late", "todo", due(day(-1))),
		mkTask("now", "todo", due(day(0))),
		mkTask("next", "todo", due(day(1))),
		mkTask("soon", "todo", due(day(3))),
		mkTask("edge", "todo", due(day(6))),
		mkTask("far", "todo", due(day(7))),
		mkTask("none", "todo"),
	}

	s := Partition(tasks, domain.SwimlaneDueDate, nil, base)

	want := map[string][]string{
		BucketOverdue:  {"late"},
		BucketToday:    {"now"},
		BucketTomorrow: {"next"},
		BucketThisWeek: {"soon", "edge"},
		BucketLater:    {"far"},
		BucketNoDate:   {"none"},
	}
	if diff := cmp.Diff([]string{BucketOverdue, BucketToday, BucketTomorrow, BucketThisWeek, BucketLater, BucketNoDate}, laneIDs(s)); diff != "" {
		t.Errorf("lane order (-want +got):\n%s", diff)
	}
	total := 0
	for _, l := range s.Lanes {
		if diff := cmp.Diff(want[l.ID], ids(l.Tasks)); diff != "" {
			t.Errorf("lane %s (-want +got):\n%s", l.ID, diff)
		}
		if l.TaskCount != len(l.Tasks) {
			t.Errorf("lane %s TaskCount = %d, want %d", l.ID, l.TaskCount, len(l.Tasks))
		}
		total += l.TaskCount
	}
	if total != len(tasks) {
		t.Errorf("tasks in lanes = %d, want %d (each task in exactly one lane)", total, len(tasks))
	}
}

func TestPartition_DueDateIgnoresTimeOfDay(t *testing.T) {
	late := base.Add(8 * time.Hour) // 23:30 the same day
	s := Partition([]*domain.Task{mkTask("t", "todo", due(&late))}, domain.SwimlaneDueDate, nil, base)
	if s.Lane(BucketToday).TaskCount != 1 {
		t.Errorf("due later today should be in %s", BucketToday)
	}
}

func TestPartition_Assignee(t *testing.T) {
	tasks := []*domain.Task{
		mkTask("1", "todo", assignee("u2", "bob")),
		mkTask("2", "todo"),
		mkTask("3", "doing", assignee("u1", "Alice")),
		mkTask("4", "done", assignee("u2", "bob")),
	}

	s := Partition(tasks, domain.SwimlaneAssignee, nil, base)

	if diff := cmp.Diff([]string{"assignee-u1", "assignee-u2", domain.UnassignedKey}, laneIDs(s)); diff != "" {
		t.Fatalf("lanes (-want +got):\n%s", diff)
	}
	if got := ids(s.Lane("assignee-u2").Tasks); !cmp.Equal(got, []string{"1", "4"}) {
		t.Errorf("bob's lane = %v", got)
	}
	unassigned := s.Lane(domain.UnassignedKey)
	if unassigned.Value != nil || unassigned.Title != "Unassigned" {
		t.Errorf("unassigned lane = %+v", unassigned)
	}
	if got := ids(unassigned.Tasks); !cmp.Equal(got, []string{"2"}) {
		t.Errorf("unassigned lane tasks = %v", got)
	}
	if s.Lane("assignee-u1").Title != "Alice" {
		t.Errorf("lane title = %q, want display name", s.Lane("assignee-u1").Title)
	}
}

func TestPartition_AssigneeWithoutTasksStillHasUnassignedLane(t *testing.T) {
	s := Partition(nil, domain.SwimlaneAssignee, nil, base)
	if diff := cmp.Diff([]string{domain.UnassignedKey}, laneIDs(s)); diff != "" {
		t.Errorf("lanes (-want +got):\n%s", diff)
	}
}

func TestPartition_Priority(t *testing.T) {
	tasks := []*domain.Task{
		mkTask("l", "todo", priority(domain.PriorityLow)),
		mkTask("h", "todo", priority(domain.PriorityHigh)),
		mkTask("m", "todo"),
		mkTask("x", "todo", priority("URGENT")),
	}

	s := Partition(tasks, domain.SwimlanePriority, nil, base)

	if diff := cmp.Diff([]string{"priority-high", "priority-medium", "priority-low"}, laneIDs(s)); diff != "" {
		t.Fatalf("lanes (-want +got):\n%s", diff)
	}
	for id, want := range map[string]string{"priority-high": "h", "priority-medium": "m", "priority-low": "l"} {
		if got := ids(s.Lane(id).Tasks); !cmp.Equal(got, []string{want}) {
			t.Errorf("lane %s = %v, want [%s]", id, got, want)
		}
	}
	if v := s.Lane("priority-high").Value; v == nil || *v != "HIGH" {
		t.Errorf("high lane value = %v, want HIGH", v)
	}
	if got := s.LaneOf(tasks[0]); got != "priority-low" {
		t.Errorf("LaneOf(low task) = %q, want priority-low", got)
	}
}

func TestPartition_None(t *testing.T) {
	tasks := []*domain.Task{mkTask("a", "todo"), mkTask("b", "done")}
	s := Partition(tasks, domain.SwimlaneNone, nil, base)

	if s.Active() {
		t.Error("no swimlane property should not be active")
	}
	if len(s.Lanes) != 1 || s.Lanes[0].ID != domain.DefaultLaneID || s.Lanes[0].TaskCount != 2 {
		t.Errorf("lanes = %+v", s.Lanes)
	}
	if !s.Contains("anything", tasks[0]) {
		t.Error("inactive swimlanes contain every task")
	}
}

func TestPartition_CollapsedIsPassedThrough(t *testing.T) {
	s := Partition(nil, domain.SwimlanePriority, []string{"priority-low"}, base)
	for _, l := range s.Lanes {
		if want := l.ID == "priority-low"; l.IsCollapsed != want {
			t.Errorf("lane %s IsCollapsed = %v, want %v", l.ID, l.IsCollapsed, want)
		}
		if l.Property != domain.SwimlanePriority {
			t.Errorf("lane %s Property = %q", l.ID, l.Property)
		}
	}
}

func TestSwimlanes_NilIsInactive(t *testing.T) {
	var s *Swimlanes
	if s.Active() {
		t.Error("nil swimlanes should be inactive")
	}
}
