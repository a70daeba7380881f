package board

import (
	"sort"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// History is the append-only status occupancy log of a set of tasks.
//
// For every task at most one entry is open (ExitedAt == nil) after any
// sequence of calls. Entries are never removed; a status name is captured
// when its entry is written and is kept even if the status is later renamed
// or deleted.
type History struct {
	byTask map[string][]*domain.StatusHistoryEntry
	opts   options
}

// NewHistory creates an empty tracker.
func NewHistory(opts ...Option) *History {
	return &History{
		byTask: make(map[string][]*domain.StatusHistoryEntry),
		opts:   buildOptions(opts),
	}
}

// Load seeds the tracker with persisted entries. If a task has more than one
// open entry, the latest open entry is kept and every other open entry is
// closed when the entry after it was entered. A single open entry is never
// touched, even when closed entries were entered after it, which is the shape
// a revert leaves behind. The repaired entries are returned so the caller can
// persist them.
func (h *History) Load(entries []*domain.StatusHistoryEntry) []*domain.StatusHistoryEntry {
	touched := make(map[string]bool)
	for _, e := range entries {
		h.byTask[e.TaskID] = append(h.byTask[e.TaskID], e)
		touched[e.TaskID] = true
	}

	var repaired []*domain.StatusHistoryEntry
	for taskID := range touched {
		list := h.byTask[taskID]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].EnteredAt.Before(list[j].EnteredAt)
		})
		latest := -1
		open := 0
		for i, e := range list {
			if e.IsOpen() {
				latest = i
				open++
			}
		}
		if open < 2 {
			continue
		}
		for i := 0; i < latest; i++ {
			if list[i].IsOpen() {
				exit := list[i+1].EnteredAt
				list[i].ExitedAt = &exit
				repaired = append(repaired, list[i])
				h.report(taskID, "multiple open entries; closed "+list[i].ID)
			}
		}
	}
	sort.Slice(repaired, func(i, j int) bool { return repaired[i].ID < repaired[j].ID })
	return repaired
}

// RecordEntry opens a new entry for the task in statusID. An entry that is
// still open is closed at enteredAt first, so the task never has two.
func (h *History) RecordEntry(taskID, statusID, statusName string, enteredAt time.Time) *domain.StatusHistoryEntry {
	if open := h.OpenEntry(taskID); open != nil {
		h.report(taskID, "entry "+open.ID+" still open when entering "+statusID)
		exit := enteredAt
		open.ExitedAt = &exit
	}

	entry := &domain.StatusHistoryEntry{
		ID:         h.opts.newID(),
		TaskID:     taskID,
		StatusID:   statusID,
		StatusName: statusName,
		EnteredAt:  enteredAt,
	}
	h.byTask[taskID] = append(h.byTask[taskID], entry)
	return entry
}

// CloseOpenEntry sets ExitedAt on the task's open entry and returns it.
// Without an open entry this is a no-op returning nil; the inconsistency is
// logged, not returned.
func (h *History) CloseOpenEntry(taskID, statusID string, exitedAt time.Time) *domain.StatusHistoryEntry {
	open := h.OpenEntry(taskID)
	if open == nil {
		h.report(taskID, "no open entry to close for "+statusID)
		return nil
	}
	if open.StatusID != statusID {
		h.report(taskID, "open entry is for "+open.StatusID+", expected "+statusID)
	}
	exit := exitedAt
	open.ExitedAt = &exit
	return open
}

// OnTaskCreated opens the initial entry of a new task at its creation time.
func (h *History) OnTaskCreated(task *domain.Task, status *domain.WorkflowStatus) *domain.StatusHistoryEntry {
	return h.RecordEntry(task.ID, status.ID, status.Name, task.CreatedAt)
}

// OpenEntry returns the task's open entry, or nil.
func (h *History) OpenEntry(taskID string) *domain.StatusHistoryEntry {
	list := h.byTask[taskID]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].IsOpen() {
			return list[i]
		}
	}
	return nil
}

// EnteredAt returns when the task entered statusID, taken from its open
// entry. ok is false when the task has no open entry for that status.
func (h *History) EnteredAt(taskID, statusID string) (time.Time, bool) {
	open := h.OpenEntry(taskID)
	if open == nil || open.StatusID != statusID {
		return time.Time{}, false
	}
	return open.EnteredAt, true
}

// Entries returns the task's entries in the order they were written.
func (h *History) Entries(taskID string) []*domain.StatusHistoryEntry {
	list := h.byTask[taskID]
	out := make([]*domain.StatusHistoryEntry, len(list))
	copy(out, list)
	return out
}

// All returns every entry, grouped by task id.
func (h *History) All() []*domain.StatusHistoryEntry {
	ids := make([]string, 0, len(h.byTask))
	for id := range h.byTask {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*domain.StatusHistoryEntry
	for _, id := range ids {
		out = append(out, h.byTask[id]...)
	}
	return out
}

// OpenCount returns how many open entries the task has. It is 0 or 1 unless
// inconsistent data was loaded without repair.
func (h *History) OpenCount(taskID string) int {
	n := 0
	for _, e := range h.byTask[taskID] {
		if e.IsOpen() {
			n++
		}
	}
	return n
}

// LastMove returns the entries of the task's most recent move that has not
// been reverted: the open entry, and the entry it replaced. previous is nil
// when the open entry was the task's first.
func (h *History) LastMove(taskID string) (previous, current *domain.StatusHistoryEntry) {
	current = h.OpenEntry(taskID)
	if current == nil || current.Reverted {
		return nil, current
	}
	list := h.byTask[taskID]
	for i := len(list) - 1; i >= 0; i-- {
		e := list[i]
		if e == current || e.IsOpen() || e.Reverted {
			continue
		}
		if e.ExitedAt.Equal(current.EnteredAt) {
			return e, current
		}
	}
	return nil, current
}

func (h *History) snapshot(taskID string) []*domain.StatusHistoryEntry {
	list := h.byTask[taskID]
	out := make([]*domain.StatusHistoryEntry, len(list))
	for i, e := range list {
		out[i] = e.Clone()
	}
	return out
}

// restore puts back a snapshot, writing values into the existing entries so
// pointers held by callers stay valid.
func (h *History) restore(taskID string, snap []*domain.StatusHistoryEntry) {
	byID := make(map[string]*domain.StatusHistoryEntry, len(h.byTask[taskID]))
	for _, e := range h.byTask[taskID] {
		byID[e.ID] = e
	}
	list := make([]*domain.StatusHistoryEntry, 0, len(snap))
	for _, s := range snap {
		if live := byID[s.ID]; live != nil {
			*live = *s
			list = append(list, live)
			continue
		}
		list = append(list, s)
	}
	if len(list) == 0 {
		delete(h.byTask, taskID)
		return
	}
	h.byTask[taskID] = list
}

func (h *History) report(taskID, detail string) {
	h.opts.logger.Printf("%s: %v", domain.ErrCodeHistoryInconsistent, domain.NewHistoryInconsistentError(taskID, detail))
}
