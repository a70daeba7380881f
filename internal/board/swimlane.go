package board

import (
	"sort"
	"strings"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

const (
	assigneeLanePrefix = "assignee-"
	priorityLanePrefix = "priority-"
)

var dueLanes = []struct{ id, title string }{
	{BucketOverdue, "Overdue"},
	{BucketToday, "Today"},
	{BucketTomorrow, "Tomorrow"},
	{BucketThisWeek, "This Week"},
	{BucketLater, "Later"},
	{BucketNoDate, "No Due Date"},
}

var priorityTitles = map[domain.Priority]string{
	domain.PriorityHigh:   "High",
	domain.PriorityMedium: "Medium",
	domain.PriorityLow:    "Low",
}

// Swimlanes is the result of partitioning a task collection.
type Swimlanes struct {
	Property domain.SwimlaneProperty
	Lanes    []*domain.Swimlane
	bounds   dayBounds
}

// Partition buckets tasks into swimlanes by property. collapsed lists lane
// ids the client has collapsed; it is passed through to IsCollapsed. For
// SwimlaneDueDate the day boundaries come from now's local date and are
// fixed for the whole call.
func Partition(tasks []*domain.Task, property domain.SwimlaneProperty, collapsed []string, now time.Time) *Swimlanes {
	s := &Swimlanes{Property: property, bounds: boundsAt(now)}

	switch property {
	case domain.SwimlaneAssignee:
		s.Lanes = assigneeLanes(tasks)
	case domain.SwimlanePriority:
		for _, p := range domain.ValidPriorities {
			v := string(p)
			s.Lanes = append(s.Lanes, &domain.Swimlane{ID: priorityLaneID(p), Title: priorityTitles[p], Value: &v})
		}
	case domain.SwimlaneDueDate:
		for _, l := range dueLanes {
			v := l.id
			s.Lanes = append(s.Lanes, &domain.Swimlane{ID: l.id, Title: l.title, Value: &v})
		}
	default:
		s.Property = domain.SwimlaneNone
		s.Lanes = []*domain.Swimlane{{ID: domain.DefaultLaneID, Title: "All Tasks"}}
	}

	isCollapsed := make(map[string]bool, len(collapsed))
	for _, id := range collapsed {
		isCollapsed[id] = true
	}
	byID := make(map[string]*domain.Swimlane, len(s.Lanes))
	for _, l := range s.Lanes {
		l.Property = s.Property
		l.IsCollapsed = isCollapsed[l.ID]
		byID[l.ID] = l
	}

	for _, t := range tasks {
		if lane := byID[s.LaneOf(t)]; lane != nil {
			lane.Tasks = append(lane.Tasks, t)
			lane.TaskCount++
		}
	}
	return s
}

func assigneeLanes(tasks []*domain.Task) []*domain.Swimlane {
	titles := make(map[string]string)
	for _, t := range tasks {
		if !t.IsAssigned() {
			continue
		}
		id := *t.AssigneeID
		if title, ok := titles[id]; !ok || title == id {
			titles[id] = t.AssigneeLabel()
		}
	}

	ids := make([]string, 0, len(titles))
	for id := range titles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := strings.ToLower(titles[ids[i]]), strings.ToLower(titles[ids[j]])
		if a != b {
			return a < b
		}
		return ids[i] < ids[j]
	})

	lanes := make([]*domain.Swimlane, 0, len(ids)+1)
	for _, id := range ids {
		v := id
		lanes = append(lanes, &domain.Swimlane{ID: assigneeLanePrefix + id, Title: titles[id], Value: &v})
	}
	return append(lanes, &domain.Swimlane{ID: domain.UnassignedKey, Title: "Unassigned"})
}

// priorityLaneID returns the lane id of a priority, such as "priority-high".
func priorityLaneID(p domain.Priority) string {
	return priorityLanePrefix + strings.ToLower(string(p))
}

// Active reports whether the board is split into more than the default lane.
func (s *Swimlanes) Active() bool {
	return s != nil && s.Property != domain.SwimlaneNone
}

// Lane returns the lane with the given id, or nil.
func (s *Swimlanes) Lane(id string) *domain.Swimlane {
	for _, l := range s.Lanes {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// LaneOf returns the id of the lane a task belongs to. Tasks with an unknown
// priority belong to no priority lane and yield "".
func (s *Swimlanes) LaneOf(t *domain.Task) string {
	switch s.Property {
	case domain.SwimlaneAssignee:
		if !t.IsAssigned() {
			return domain.UnassignedKey
		}
		return assigneeLanePrefix + *t.AssigneeID
	case domain.SwimlanePriority:
		if !t.Priority.IsValid() {
			return ""
		}
		return priorityLaneID(t.Priority)
	case domain.SwimlaneDueDate:
		return s.bounds.bucket(t.DueDate)
	default:
		return domain.DefaultLaneID
	}
}

// Contains reports whether task belongs to the lane laneID.
func (s *Swimlanes) Contains(laneID string, t *domain.Task) bool {
	if !s.Active() {
		return true
	}
	return s.LaneOf(t) == laneID
}
