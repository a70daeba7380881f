package service

import (
	"database/sql"

	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/store/sqlite"
)

// TransitionService moves tasks between statuses. Every accepted move is
// validated by the engine and persisted in one transaction; a failed write
// rolls back both the database and the in-memory state.
type TransitionService struct {
	base
}

// NewTransitionService creates a new TransitionService.
func NewTransitionService(db *sql.DB, cfg Config) *TransitionService {
	return &TransitionService{base: newBase(db, cfg)}
}

// MoveResult describes the outcome of a single move.
type MoveResult struct {
	Task         *domain.Task               `json:"task"`
	FromStatusID string                     `json:"from_status_id"`
	ToStatusID   string                     `json:"to_status_id"`
	NoOp         bool                       `json:"no_op"`
	Entry        *domain.StatusHistoryEntry `json:"entry,omitempty"`
}

// Move moves a task into statusID.
func (s *TransitionService) Move(taskID, statusID, actor string) (*MoveResult, error) {
	var result *MoveResult
	err := sqlite.WithTx(s.db, func(tx *sql.Tx) error {
		ws, err := s.workflow(tx)
		if err != nil {
			return err
		}
		all, err := sqlite.NewTaskRepository(tx).ListAll()
		if err != nil {
			return err
		}
		task := findTask(all, taskID)
		if task == nil {
			return domain.NewTaskNotFoundError(taskID)
		}
		h, err := s.history(tx, taskID)
		if err != nil {
			return err
		}

		from := task.StatusKey()
		tr, err := s.engine.Move(board.MoveRequest{
			Task:     task,
			ToStatus: statusID,
			Statuses: ws.Statuses,
			Settings: ws.Settings,
			Tasks:    all,
			History:  h,
			At:       s.now(),
			Actor:    actor,
		})
		if err != nil {
			return err
		}

		result = &MoveResult{Task: task, FromStatusID: from, ToStatusID: statusID, NoOp: tr.NoOp()}
		if tr.NoOp() {
			return nil
		}
		if err := persistTransition(tx, tr); err != nil {
			tr.Rollback(h)
			return transitionFailed(taskID, err)
		}
		result.Entry = tr.Opened
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	if !result.NoOp {
		s.publish(events.TaskMoved, actor, result)
	}
	return result, nil
}

// BulkMoveResult describes the outcome of a bulk move.
type BulkMoveResult struct {
	ToStatusID string         `json:"to_status_id"`
	Moved      []*domain.Task `json:"moved"`
	// Unchanged lists tasks that were already in the target status.
	Unchanged []string `json:"unchanged"`
}

// MoveBulk moves every task into statusID, or none of them. The WIP limit is
// checked once for the whole batch.
func (s *TransitionService) MoveBulk(taskIDs []string, statusID, actor string) (*BulkMoveResult, error) {
	if len(taskIDs) == 0 {
		return nil, domain.NewValidationError([]string{"task_ids must not be empty"})
	}

	result := &BulkMoveResult{ToStatusID: statusID, Moved: []*domain.Task{}, Unchanged: []string{}}
	err := sqlite.WithTx(s.db, func(tx *sql.Tx) error {
		ws, err := s.workflow(tx)
		if err != nil {
			return err
		}
		all, err := sqlite.NewTaskRepository(tx).ListAll()
		if err != nil {
			return err
		}
		moving := make([]*domain.Task, 0, len(taskIDs))
		for _, id := range taskIDs {
			task := findTask(all, id)
			if task == nil {
				return domain.NewTaskNotFoundError(id)
			}
			moving = append(moving, task)
		}
		h, err := s.history(tx, taskIDs...)
		if err != nil {
			return err
		}

		bt, err := s.engine.MoveBulk(board.BulkMoveRequest{
			Moving:   moving,
			ToStatus: statusID,
			Statuses: ws.Statuses,
			Settings: ws.Settings,
			Tasks:    all,
			History:  h,
			At:       s.now(),
			Actor:    actor,
		})
		if err != nil {
			return err
		}

		for _, tr := range bt.Transitions {
			if tr.NoOp() {
				result.Unchanged = append(result.Unchanged, tr.Task.ID)
				continue
			}
			if err := persistTransition(tx, tr); err != nil {
				bt.Rollback(h)
				return transitionFailed(tr.Task.ID, err)
			}
			result.Moved = append(result.Moved, tr.Task)
		}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	if len(result.Moved) > 0 {
		s.publish(events.TaskMoved, actor, result)
	}
	return result, nil
}

// RevertResult describes a compensated move.
type RevertResult struct {
	Task     *domain.Task               `json:"task"`
	Reverted *domain.StatusHistoryEntry `json:"reverted"`
	Reopened *domain.StatusHistoryEntry `json:"reopened"`
}

// Revert undoes a task's last move. The attempted move stays in the history,
// closed and marked reverted, and the entry it replaced is reopened. Reverts
// ignore WIP limits but refuse archived or deleted statuses. Reverting again
// walks further back.
func (s *TransitionService) Revert(taskID, actor string) (*RevertResult, error) {
	var result *RevertResult
	err := sqlite.WithTx(s.db, func(tx *sql.Tx) error {
		task, err := sqlite.NewTaskRepository(tx).GetByID(taskID)
		if err == sql.ErrNoRows {
			return domain.NewTaskNotFoundError(taskID)
		}
		if err != nil {
			return err
		}
		ws, err := s.workflow(tx)
		if err != nil {
			return err
		}
		h, err := s.history(tx, taskID)
		if err != nil {
			return err
		}

		if previous, _ := h.LastMove(taskID); previous != nil && domain.FindStatus(ws.Statuses, previous.StatusID) == nil {
			return domain.NewStatusNotFoundError(previous.StatusID)
		}
		isArchived := func(id string) bool {
			st := domain.FindStatus(ws.Statuses, id)
			return st != nil && st.IsArchived
		}
		c, err := board.RevertLastMove(h, task, s.now(), isArchived)
		if err != nil {
			return err
		}
		if err := persistCompensation(tx, c); err != nil {
			return transitionFailed(taskID, err)
		}
		result = &RevertResult{Task: task, Reverted: c.Reverted, Reopened: c.Reopened}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	s.publish(events.TaskReverted, actor, result)
	return result, nil
}
