// Package service implements the board use cases on top of the engine and
// the project database.
package service

import (
	"database/sql"
	"errors"
	"io"
	"log"
	"time"

	"golang.org/x/text/language"

	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/store/sqlite"
)

// Config carries the project-independent settings shared by every service.
type Config struct {
	// Project names the database the services operate on; it is stamped on
	// published events.
	Project string
	// Defaults apply until a project saves its own settings.
	Defaults domain.WorkflowSettings
	Keywords domain.CategoryKeywords
	Locale   language.Tag
	// Templates are added to the built-in workflow templates; a template
	// with a built-in name replaces it.
	Templates []domain.WorkflowTemplate
	Logger    *log.Logger
	Publisher events.Publisher
	Now       func() time.Time
}

func (c Config) withDefaults() Config {
	if !c.Defaults.SwimlaneProperty.IsValid() {
		c.Defaults.SwimlaneProperty = domain.SwimlaneNone
	}
	kw := c.Keywords
	if len(kw.Done)+len(kw.Blocked)+len(kw.InProgress)+len(kw.Todo) == 0 {
		c.Keywords = domain.DefaultCategoryKeywords()
	}
	if c.Locale == language.Und {
		c.Locale = language.English
	}
	if c.Logger == nil {
		c.Logger = log.New(io.Discard, "", 0)
	}
	if c.Publisher == nil {
		c.Publisher = events.Discard
	}
	if c.Now == nil {
		c.Now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// base holds what every service needs: the project database, the
// configuration and an engine built from it.
type base struct {
	db     *sql.DB
	cfg    Config
	engine *board.Engine
}

func newBase(db *sql.DB, cfg Config) base {
	cfg = cfg.withDefaults()
	return base{
		db:  db,
		cfg: cfg,
		engine: board.New(
			board.WithLogger(cfg.Logger),
			board.WithLocale(cfg.Locale),
			board.WithCategoryKeywords(cfg.Keywords),
		),
	}
}

func (b base) now() time.Time {
	return b.cfg.Now()
}

func (b base) publish(typ, actor string, data any) {
	b.cfg.Publisher.Publish(events.Event{
		Type:    typ,
		Project: b.cfg.Project,
		Actor:   actor,
		Data:    data,
		At:      b.now(),
	})
}

// workflowState is the workflow a project currently uses.
type workflowState struct {
	Statuses []*domain.WorkflowStatus
	// Legacy is set when the project has no custom statuses and runs on
	// the synthetic legacy ones.
	Legacy   bool
	Settings domain.WorkflowSettings
}

func (b base) workflow(q sqlite.DBTX) (*workflowState, error) {
	statuses, err := sqlite.NewStatusRepository(q).List()
	if err != nil {
		return nil, err
	}
	ws := &workflowState{Statuses: statuses}
	if len(statuses) == 0 {
		ws.Statuses = domain.LegacyStatuses()
		ws.Legacy = true
	}

	settings, found, err := sqlite.NewSettingsRepository(q).Get()
	if err != nil {
		return nil, err
	}
	if !found {
		settings = b.cfg.Defaults
	}
	ws.Settings = settings
	return ws, nil
}

// history loads the history of the given tasks, or of every task when none
// are named. Entries repaired on load are written back.
func (b base) history(q sqlite.DBTX, taskIDs ...string) (*board.History, error) {
	repo := sqlite.NewHistoryRepository(q)
	var entries []*domain.StatusHistoryEntry
	if len(taskIDs) == 0 {
		all, err := repo.ListAll()
		if err != nil {
			return nil, err
		}
		entries = all
	}
	seen := make(map[string]bool, len(taskIDs))
	for _, id := range taskIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		list, err := repo.ListByTask(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, list...)
	}

	h := b.engine.NewHistory()
	for _, e := range h.Load(entries) {
		if err := repo.Update(e); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// materialize turns the legacy statuses into stored custom statuses with the
// same ids, so existing tasks and history keep pointing at them.
func (b base) materialize(q sqlite.DBTX, ws *workflowState) error {
	if !ws.Legacy {
		return nil
	}
	repo := sqlite.NewStatusRepository(q)
	now := b.now()
	for _, s := range ws.Statuses {
		s.CreatedAt = now
		if err := repo.Create(s); err != nil {
			return err
		}
	}
	if _, err := q.Exec(`UPDATE tasks SET status_id = status WHERE status_id IS NULL`); err != nil {
		return err
	}
	ws.Legacy = false
	return nil
}

// persistTransition writes an applied move: the closed entry first, then the
// opened entry, then the task's status.
func persistTransition(q sqlite.DBTX, tr *board.Transition) error {
	history := sqlite.NewHistoryRepository(q)
	if tr.Closed != nil {
		if err := history.Update(tr.Closed); err != nil {
			return err
		}
	}
	if err := history.Insert(tr.Opened); err != nil {
		return err
	}
	if err := sqlite.NewTaskRepository(q).UpdateStatus(tr.Task); err != nil {
		if errors.Is(err, sqlite.ErrArchivedStatus) {
			return domain.NewArchivedTargetError(tr.To.ID, tr.To.Name)
		}
		return err
	}
	return nil
}

// persistCompensation writes a revert: the reverted entry is closed before
// the previous entry is reopened or inserted.
func persistCompensation(q sqlite.DBTX, c *board.Compensation) error {
	history := sqlite.NewHistoryRepository(q)
	if err := history.Update(c.Reverted); err != nil {
		return err
	}
	if c.Created {
		if err := history.Insert(c.Reopened); err != nil {
			return err
		}
	} else if err := history.Update(c.Reopened); err != nil {
		return err
	}
	if err := sqlite.NewTaskRepository(q).UpdateStatus(c.Task); err != nil {
		if errors.Is(err, sqlite.ErrArchivedStatus) {
			return domain.NewArchivedTargetError(c.Reopened.StatusID, c.Reopened.StatusName)
		}
		return err
	}
	return nil
}

// transitionFailed keeps domain errors and wraps anything else, so a failed
// write surfaces as TRANSITION_FAILED.
func transitionFailed(taskID string, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewTransitionFailedError(taskID, err)
}

// asDomainError returns err as a DomainError, wrapping non-domain errors as
// internal errors.
func asDomainError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de
	}
	return domain.NewInternalError(err)
}

func findTask(tasks []*domain.Task, id string) *domain.Task {
	for _, t := range tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func strPtr(s string) *string {
	return &s
}
