package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

const taskColumns = `id, title, description, priority, status, status_id, assignee_id, assignee_name, due_date, created_at, updated_at`

// TaskRepository handles task persistence operations.
type TaskRepository struct {
	db DBTX
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create creates a new task.
func (r *TaskRepository) Create(task *domain.Task) error {
	_, err := r.db.Exec(`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Description,
		string(task.Priority),
		legacyStatus(task),
		task.StatusID,
		task.AssigneeID,
		task.AssigneeName,
		formatDate(task.DueDate),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	return err
}

// GetByID retrieves a task by its ID.
func (r *TaskRepository) GetByID(id string) (*domain.Task, error) {
	row := r.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

// ListParams filters and paginates List. Zero values mean no filter and no
// pagination.
type ListParams struct {
	StatusKey  *string
	AssigneeID *string
	Page       int
	PerPage    int
}

// List retrieves tasks ordered by creation time, with the total matching count.
func (r *TaskRepository) List(params ListParams) ([]*domain.Task, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	if params.StatusKey != nil {
		where += " AND (status_id = ? OR (status_id IS NULL AND status = ?))"
		args = append(args, *params.StatusKey, *params.StatusKey)
	}
	if params.AssigneeID != nil {
		if *params.AssigneeID == domain.UnassignedKey {
			where += " AND assignee_id IS NULL"
		} else {
			where += " AND assignee_id = ?"
			args = append(args, *params.AssigneeID)
		}
	}

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tasks"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + taskColumns + " FROM tasks" + where + " ORDER BY created_at ASC, id ASC"
	if params.PerPage > 0 {
		page := max(params.Page, 1)
		query += " LIMIT ? OFFSET ?"
		args = append(args, params.PerPage, (page-1)*params.PerPage)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	return tasks, total, rows.Err()
}

// ListAll returns every task of the project.
func (r *TaskRepository) ListAll() ([]*domain.Task, error) {
	tasks, _, err := r.List(ListParams{})
	return tasks, err
}

// Update updates a task's fields.
func (r *TaskRepository) Update(task *domain.Task) error {
	result, err := r.db.Exec(`
		UPDATE tasks
		SET title = ?, description = ?, priority = ?, status = ?, status_id = ?,
		    assignee_id = ?, assignee_name = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`,
		task.Title,
		task.Description,
		string(task.Priority),
		legacyStatus(task),
		task.StatusID,
		task.AssigneeID,
		task.AssigneeName,
		formatDate(task.DueDate),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// UpdateStatus writes the task's status fields. Writing the status a task
// already has succeeds. A custom target status that is archived is rejected
// with ErrArchivedStatus; a missing task yields sql.ErrNoRows.
func (r *TaskRepository) UpdateStatus(task *domain.Task) error {
	result, err := r.db.Exec(`
		UPDATE tasks
		SET status = ?, status_id = ?, updated_at = ?
		WHERE id = ?
		AND NOT EXISTS (SELECT 1 FROM workflow_statuses WHERE id = ? AND is_archived = 1)
	`,
		legacyStatus(task),
		task.StatusID,
		formatTime(task.UpdatedAt),
		task.ID,
		task.StatusID,
	)
	if err != nil {
		return err
	}
	if err := expectOneRow(result); err != sql.ErrNoRows {
		return err
	}

	var exists int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM tasks WHERE id = ?", task.ID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return sql.ErrNoRows
	}
	return ErrArchivedStatus
}

// Delete deletes a task by ID. Its history goes with it.
func (r *TaskRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func scanTask(s scanner) (*domain.Task, error) {
	var task domain.Task
	var description, statusID, assigneeID, assigneeName, dueDate sql.NullString
	var priority, status, createdAt, updatedAt string

	err := s.Scan(
		&task.ID,
		&task.Title,
		&description,
		&priority,
		&status,
		&statusID,
		&assigneeID,
		&assigneeName,
		&dueDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.Status = domain.LegacyStatus(status)
	task.Description = nullString(description)
	task.StatusID = nullString(statusID)
	task.AssigneeID = nullString(assigneeID)
	task.AssigneeName = nullString(assigneeName)
	if dueDate.Valid {
		d, err := time.Parse(dateLayout, dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("task %s has invalid due_date %q: %w", task.ID, dueDate.String, err)
		}
		task.DueDate = &d
	}
	task.CreatedAt = parseTime(createdAt)
	task.UpdatedAt = parseTime(updatedAt)
	return &task, nil
}

// legacyStatus is the value of the NOT NULL status column. Tasks on a custom
// workflow keep their last legacy status.
func legacyStatus(task *domain.Task) string {
	if task.Status.IsValid() {
		return string(task.Status)
	}
	return string(domain.StatusTodo)
}

func formatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(dateLayout)
	return &s
}
