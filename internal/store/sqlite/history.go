package sqlite

import (
	"database/sql"

	"github.com/airyra/flowboard/internal/domain"
)

const historyColumns = `id, task_id, status_id, status_name, entered_at, exited_at, reverted, changed_by`

// HistoryRepository handles status history persistence operations.
//
// The database allows one open entry per task, so an entry must be closed
// before the next one is inserted or reopened.
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert stores a new entry.
func (r *HistoryRepository) Insert(e *domain.StatusHistoryEntry) error {
	_, err := r.db.Exec(`INSERT INTO status_history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.TaskID,
		e.StatusID,
		e.StatusName,
		formatTime(e.EnteredAt),
		formatNullTime(e.ExitedAt),
		boolInt(e.Reverted),
		e.ChangedBy,
	)
	return err
}

// Update writes an entry's exit time and reverted flag. Entered time and
// status name are immutable.
func (r *HistoryRepository) Update(e *domain.StatusHistoryEntry) error {
	result, err := r.db.Exec(`UPDATE status_history SET exited_at = ?, reverted = ? WHERE id = ?`,
		formatNullTime(e.ExitedAt), boolInt(e.Reverted), e.ID)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// ListByTask returns a task's entries, oldest first.
func (r *HistoryRepository) ListByTask(taskID string) ([]*domain.StatusHistoryEntry, error) {
	return r.list(`SELECT `+historyColumns+` FROM status_history WHERE task_id = ? ORDER BY entered_at ASC, id ASC`, taskID)
}

// ListAll returns every entry of the project, oldest first.
func (r *HistoryRepository) ListAll() ([]*domain.StatusHistoryEntry, error) {
	return r.list(`SELECT ` + historyColumns + ` FROM status_history ORDER BY entered_at ASC, id ASC`)
}

// ListOpenByStatus returns the open entries for a status.
func (r *HistoryRepository) ListOpenByStatus(statusID string) ([]*domain.StatusHistoryEntry, error) {
	return r.list(`SELECT `+historyColumns+` FROM status_history WHERE status_id = ? AND exited_at IS NULL ORDER BY entered_at ASC, id ASC`, statusID)
}

func (r *HistoryRepository) list(query string, args ...any) ([]*domain.StatusHistoryEntry, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.StatusHistoryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(s scanner) (*domain.StatusHistoryEntry, error) {
	var e domain.StatusHistoryEntry
	var enteredAt string
	var exitedAt sql.NullString
	var reverted int

	err := s.Scan(&e.ID, &e.TaskID, &e.StatusID, &e.StatusName, &enteredAt, &exitedAt, &reverted, &e.ChangedBy)
	if err != nil {
		return nil, err
	}
	e.EnteredAt = parseTime(enteredAt)
	e.ExitedAt = parseNullTime(exitedAt)
	e.Reverted = reverted == 1
	return &e, nil
}
