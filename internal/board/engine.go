package board

import (
	"time"

	"github.com/airyra/flowboard/internal/domain"
)

// Engine bundles the board components configured with the same options.
type Engine struct {
	Query   *QueryEngine
	Metrics *MetricsCalculator
	opts    options
}

// New creates an engine.
func New(opts ...Option) *Engine {
	o := buildOptions(opts)
	return &Engine{
		Query:   &QueryEngine{locale: o.locale},
		Metrics: &MetricsCalculator{keywords: o.keywords},
		opts:    o,
	}
}

// NewHistory creates a tracker sharing the engine's logger and id generator.
func (e *Engine) NewHistory() *History {
	return &History{
		byTask: make(map[string][]*domain.StatusHistoryEntry),
		opts:   e.opts,
	}
}

// MoveRequest asks to move one task.
type MoveRequest struct {
	Task     *domain.Task
	ToStatus string
	Statuses []*domain.WorkflowStatus
	Settings domain.WorkflowSettings
	// Tasks is the full task snapshot, used for the column-wide WIP count.
	Tasks   []*domain.Task
	History *History
	At      time.Time
	Actor   string
}

// Move validates and applies a move. A rejected move returns the rejection
// reason and leaves task and history untouched.
func (e *Engine) Move(req MoveRequest) (*Transition, error) {
	to := domain.FindStatus(req.Statuses, req.ToStatus)
	if to == nil {
		return nil, domain.NewStatusNotFoundError(req.ToStatus)
	}
	from := domain.FindStatus(req.Statuses, req.Task.StatusKey())

	d := CanTransition(req.Task, from, to, req.Settings, TasksInStatus(req.Tasks, to.ID))
	if !d.Allowed {
		return nil, d.Err()
	}

	tr := NewTransition(req.Task, from, to, req.At)
	tr.Actor = req.Actor
	if err := tr.Apply(req.History); err != nil {
		return nil, err
	}
	return tr, nil
}

// BulkMoveRequest asks to move several tasks into one status.
type BulkMoveRequest struct {
	Moving   []*domain.Task
	ToStatus string
	Statuses []*domain.WorkflowStatus
	Settings domain.WorkflowSettings
	Tasks    []*domain.Task
	History  *History
	At       time.Time
	Actor    string
}

// MoveBulk validates and applies a bulk move, all or nothing.
func (e *Engine) MoveBulk(req BulkMoveRequest) (*BulkTransition, error) {
	to := domain.FindStatus(req.Statuses, req.ToStatus)
	if to == nil {
		return nil, domain.NewStatusNotFoundError(req.ToStatus)
	}

	d := CanTransitionBulk(req.Moving, to, req.Settings, TasksInStatus(req.Tasks, to.ID))
	if !d.Allowed {
		return nil, d.Err()
	}

	lookup := func(id string) *domain.WorkflowStatus { return domain.FindStatus(req.Statuses, id) }
	bt := NewBulkTransition(req.Moving, lookup, to, req.At, req.Actor)
	if err := bt.Apply(req.History); err != nil {
		return nil, err
	}
	return bt, nil
}
