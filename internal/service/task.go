package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/store/sqlite"
	"github.com/airyra/flowboard/pkg/idgen"
)

// TaskService handles task business logic.
type TaskService struct {
	base
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *sql.DB, cfg Config) *TaskService {
	return &TaskService{base: newBase(db, cfg)}
}

// CreateTaskInput contains the input for creating a task.
type CreateTaskInput struct {
	Title        string
	Description  *string
	Priority     *domain.Priority
	StatusID     *string
	AssigneeID   *string
	AssigneeName *string
	DueDate      *time.Time
}

// Create creates a new task in the requested status, or the default status,
// and opens its first history entry.
func (s *TaskService) Create(input CreateTaskInput, actor string) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, domain.NewValidationError([]string{"title is required"})
	}
	id, err := idgen.Generate(idgen.TaskPrefix)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	now := s.now()
	task := &domain.Task{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Priority:    domain.PriorityMedium,
		Status:      domain.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, domain.NewValidationError([]string{fmt.Sprintf("invalid priority %q", *input.Priority)})
		}
		task.Priority = *input.Priority
	}
	if input.AssigneeID != nil {
		name := ""
		if input.AssigneeName != nil {
			name = *input.AssigneeName
		}
		task.SetAssignee(*input.AssigneeID, name)
	}
	if input.DueDate != nil {
		task.SetDueDate(*input.DueDate)
	}

	err = sqlite.WithTx(s.db, func(tx *sql.Tx) error {
		ws, err := s.workflow(tx)
		if err != nil {
			return err
		}
		status := domain.DefaultStatus(ws.Statuses)
		if input.StatusID != nil {
			status = domain.FindStatus(ws.Statuses, *input.StatusID)
			if status == nil {
				return domain.NewStatusNotFoundError(*input.StatusID)
			}
		}
		if status == nil {
			return domain.NewDefaultStatusRequiredError("workflow has no default status")
		}
		if status.IsArchived {
			return domain.NewArchivedTargetError(status.ID, status.Name)
		}
		if !ws.Legacy {
			task.StatusID = &status.ID
		} else {
			task.SetStatusKey(status.ID)
		}

		if err := sqlite.NewTaskRepository(tx).Create(task); err != nil {
			return err
		}
		h := s.engine.NewHistory()
		entry := h.OnTaskCreated(task, status)
		entry.ChangedBy = actor
		return sqlite.NewHistoryRepository(tx).Insert(entry)
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	s.publish(events.TaskCreated, actor, task)
	return task, nil
}

// Get retrieves a task by ID.
func (s *TaskService) Get(id string) (*domain.Task, error) {
	task, err := sqlite.NewTaskRepository(s.db).GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewTaskNotFoundError(id)
		}
		return nil, domain.NewInternalError(err)
	}
	return task, nil
}

// ListTasksInput contains the input for listing tasks.
type ListTasksInput struct {
	StatusKey  *string
	AssigneeID *string
	Page       int
	PerPage    int
}

// List retrieves tasks with pagination.
func (s *TaskService) List(input ListTasksInput) ([]*domain.Task, int, error) {
	tasks, total, err := sqlite.NewTaskRepository(s.db).List(sqlite.ListParams{
		StatusKey:  input.StatusKey,
		AssigneeID: input.AssigneeID,
		Page:       input.Page,
		PerPage:    input.PerPage,
	})
	if err != nil {
		return nil, 0, domain.NewInternalError(err)
	}
	return tasks, total, nil
}

// UpdateTaskInput contains the input for updating a task. Nil fields are
// left unchanged; an empty AssigneeID unassigns; ClearDueDate removes the
// due date. The status is changed through TransitionService only.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *domain.Priority
	AssigneeID   *string
	AssigneeName *string
	DueDate      *time.Time
	ClearDueDate bool
}

// Update updates a task.
func (s *TaskService) Update(id string, input UpdateTaskInput, actor string) (*domain.Task, error) {
	repo := sqlite.NewTaskRepository(s.db)
	task, err := repo.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NewTaskNotFoundError(id)
		}
		return nil, domain.NewInternalError(err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, domain.NewValidationError([]string{"title cannot be empty"})
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.SetDescription(*input.Description)
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, domain.NewValidationError([]string{fmt.Sprintf("invalid priority %q", *input.Priority)})
		}
		task.Priority = *input.Priority
	}
	if input.AssigneeID != nil {
		name := ""
		if input.AssigneeName != nil {
			name = *input.AssigneeName
		}
		task.SetAssignee(*input.AssigneeID, name)
	} else if input.AssigneeName != nil && task.IsAssigned() {
		task.SetAssignee(*task.AssigneeID, *input.AssigneeName)
	}
	switch {
	case input.ClearDueDate:
		task.DueDate = nil
	case input.DueDate != nil:
		task.SetDueDate(*input.DueDate)
	}
	task.UpdatedAt = s.now()

	if err := repo.Update(task); err != nil {
		return nil, domain.NewInternalError(err)
	}

	s.publish(events.TaskUpdated, actor, task)
	return task, nil
}

// Delete deletes a task and its history.
func (s *TaskService) Delete(id string, actor string) error {
	if err := sqlite.NewTaskRepository(s.db).Delete(id); err != nil {
		if err == sql.ErrNoRows {
			return domain.NewTaskNotFoundError(id)
		}
		return domain.NewInternalError(err)
	}
	s.publish(events.TaskUpdated, actor, map[string]any{"id": id, "deleted": true})
	return nil
}

// History returns a task's status history, oldest first.
func (s *TaskService) History(id string) ([]*domain.StatusHistoryEntry, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	h, err := s.history(s.db, id)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return h.Entries(id), nil
}
