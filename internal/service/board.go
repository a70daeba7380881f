package service

import (
	"database/sql"

	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/store/sqlite"
)

// BoardService computes read-only board views and metrics.
type BoardService struct {
	base
}

// NewBoardService creates a new BoardService.
func NewBoardService(db *sql.DB, cfg Config) *BoardService {
	return &BoardService{base: newBase(db, cfg)}
}

// BoardQuery customizes a computed board. The zero value renders the board
// with the project's saved settings.
type BoardQuery struct {
	// Swimlane overrides the saved swimlane property when set.
	Swimlane     *domain.SwimlaneProperty
	ShowArchived *bool
	Collapsed    []string
	Views        domain.ColumnViews
}

// Board returns the board: visible columns, swimlanes and the tasks of every
// cell.
func (s *BoardService) Board(q BoardQuery) (*board.View, error) {
	if q.Swimlane != nil && !q.Swimlane.IsValid() {
		return nil, domain.NewValidationError([]string{"invalid swimlane property " + string(*q.Swimlane)})
	}
	if err := q.Views.Validate(); err != nil {
		return nil, err
	}

	ws, err := s.workflow(s.db)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	tasks, err := sqlite.NewTaskRepository(s.db).ListAll()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	groups, err := sqlite.NewGroupRepository(s.db).List()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	settings := ws.Settings
	if q.Swimlane != nil {
		settings.SwimlaneProperty = *q.Swimlane
	}
	if q.ShowArchived != nil {
		settings.ShowArchivedColumns = *q.ShowArchived
	}

	return s.engine.Query.BuildBoard(board.BoardInput{
		Tasks:     tasks,
		Statuses:  ws.Statuses,
		Groups:    groups,
		Settings:  settings,
		Views:     q.Views,
		Collapsed: q.Collapsed,
		Now:       s.now(),
	}), nil
}

// ColumnMetrics returns the metrics of one column.
func (s *BoardService) ColumnMetrics(statusID string) (*board.ColumnMetrics, error) {
	ws, err := s.workflow(s.db)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	status := domain.FindStatus(ws.Statuses, statusID)
	if status == nil {
		return nil, domain.NewStatusNotFoundError(statusID)
	}

	tasks, err := sqlite.NewTaskRepository(s.db).ListAll()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	inColumn := board.TasksInStatus(tasks, statusID)
	ids := make([]string, 0, len(inColumn))
	for _, t := range inColumn {
		ids = append(ids, t.ID)
	}
	h := s.engine.NewHistory()
	if len(ids) > 0 {
		if h, err = s.history(s.db, ids...); err != nil {
			return nil, domain.NewInternalError(err)
		}
	}

	m := s.engine.Metrics.ColumnMetrics(inColumn, status, h, s.now())
	return &m, nil
}

// AllColumnMetrics returns the metrics of every visible column in order.
func (s *BoardService) AllColumnMetrics() ([]board.ColumnMetrics, error) {
	ws, err := s.workflow(s.db)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	tasks, err := sqlite.NewTaskRepository(s.db).ListAll()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	h, err := s.history(s.db)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	now := s.now()
	columns := board.VisibleStatuses(ws.Statuses, ws.Settings)
	out := make([]board.ColumnMetrics, 0, len(columns))
	for _, st := range columns {
		out = append(out, s.engine.Metrics.ColumnMetrics(tasks, st, h, now))
	}
	return out, nil
}

// SwimlaneMetrics partitions every task by property, or by the saved
// swimlane property when property is nil, and returns the metrics of each
// lane in lane order.
func (s *BoardService) SwimlaneMetrics(property *domain.SwimlaneProperty) ([]board.SwimlaneMetrics, error) {
	if property != nil && !property.IsValid() {
		return nil, domain.NewValidationError([]string{"invalid swimlane property " + string(*property)})
	}
	ws, err := s.workflow(s.db)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	tasks, err := sqlite.NewTaskRepository(s.db).ListAll()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}

	p := ws.Settings.SwimlaneProperty
	if property != nil {
		p = *property
	}
	now := s.now()
	lanes := board.Partition(tasks, p, nil, now)
	out := make([]board.SwimlaneMetrics, 0, len(lanes.Lanes))
	for _, lane := range lanes.Lanes {
		out = append(out, s.engine.Metrics.SwimlaneMetrics(lane, ws.Statuses, now))
	}
	return out, nil
}
