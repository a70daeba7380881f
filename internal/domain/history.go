package domain

import "time"

// StatusHistoryEntry records one stay of a task in one status. An entry with
// a nil ExitedAt is the task's open entry.
type StatusHistoryEntry struct {
	ID         string     `json:"id"`
	TaskID     string     `json:"task_id"`
	StatusID   string     `json:"status_id"`
	StatusName string     `json:"status_name"`
	EnteredAt  time.Time  `json:"entered_at"`
	ExitedAt   *time.Time `json:"exited_at,omitempty"`
	Reverted   bool       `json:"reverted,omitempty"`
	ChangedBy  string     `json:"changed_by,omitempty"`
}

// IsOpen reports whether the task still occupies this status.
func (e *StatusHistoryEntry) IsOpen() bool {
	return e.ExitedAt == nil
}

// Duration returns the time spent in the status, measured up to now for an
// open entry. Negative spans clamp to zero.
func (e *StatusHistoryEntry) Duration(now time.Time) time.Duration {
	end := now
	if e.ExitedAt != nil {
		end = *e.ExitedAt
	}
	d := end.Sub(e.EnteredAt)
	if d < 0 {
		return 0
	}
	return d
}

// Clone returns a copy of the entry.
func (e *StatusHistoryEntry) Clone() *StatusHistoryEntry {
	c := *e
	if e.ExitedAt != nil {
		t := *e.ExitedAt
		c.ExitedAt = &t
	}
	return &c
}
