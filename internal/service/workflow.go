package service

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/store/sqlite"
	"github.com/airyra/flowboard/pkg/idgen"
)

// WorkflowService manages a project's statuses, column groups and settings.
//
// A project starts on the legacy statuses. The first structural edit stores
// them as custom statuses with the same ids; applying a template instead
// replaces them and moves every task to the template status of the same
// category.
type WorkflowService struct {
	base
}

// NewWorkflowService creates a new WorkflowService.
func NewWorkflowService(db *sql.DB, cfg Config) *WorkflowService {
	return &WorkflowService{base: newBase(db, cfg)}
}

// WorkflowView is the current workflow of a project.
type WorkflowView struct {
	Statuses []*domain.WorkflowStatus `json:"statuses"`
	Legacy   bool                     `json:"legacy"`
}

// Statuses returns the project's statuses in board order.
func (s *WorkflowService) Statuses() (*WorkflowView, error) {
	ws, err := s.workflow(s.db)
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return &WorkflowView{Statuses: ws.Statuses, Legacy: ws.Legacy}, nil
}

// Templates returns the available templates sorted by name.
func (s *WorkflowService) Templates() []domain.WorkflowTemplate {
	byName := s.templates()
	out := make([]domain.WorkflowTemplate, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *WorkflowService) templates() map[string]domain.WorkflowTemplate {
	byName := domain.BuiltinTemplates()
	for _, t := range s.cfg.Templates {
		byName[t.Name] = t
	}
	return byName
}

// ApplyTemplate replaces the legacy statuses with the statuses of a template.
// Each task moves to the first template status sharing its legacy status's
// category, or to the template's default status.
func (s *WorkflowService) ApplyTemplate(name, actor string) (*WorkflowView, error) {
	tmpl, ok := s.templates()[name]
	if !ok {
		return nil, domain.NewValidationError([]string{fmt.Sprintf("unknown template %q", name)})
	}

	var statuses []*domain.WorkflowStatus
	err := sqlite.WithTx(s.db, func(tx *sql.Tx) error {
		ws, err := s.workflow(tx)
		if err != nil {
			return err
		}
		if !ws.Legacy {
			return domain.NewValidationError([]string{"templates can only be applied to a board without custom statuses"})
		}

		now := s.now()
		statuses, err = tmpl.BuildStatuses(func() string { return idgen.MustGenerate(idgen.StatusPrefix) }, now)
		if err != nil {
			return err
		}
		repo := sqlite.NewStatusRepository(tx)
		for _, st := range statuses {
			if err := repo.Create(st); err != nil {
				return err
			}
		}

		tasks, err := sqlite.NewTaskRepository(tx).ListAll()
		if err != nil {
			return err
		}
		h, err := s.history(tx)
		if err != nil {
			return err
		}
		target := make(map[domain.StatusCategory]*domain.WorkflowStatus)
		for i := len(statuses) - 1; i >= 0; i-- {
			target[statuses[i].ResolvedCategory(s.cfg.Keywords)] = statuses[i]
		}
		fallback := domain.DefaultStatus(statuses)

		for _, task := range tasks {
			from := domain.FindStatus(ws.Statuses, task.StatusKey())
			to := fallback
			if from != nil && target[from.Category] != nil {
				to = target[from.Category]
			}
			if err := s.reassign(tx, h, task, from, to, actor, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, asDomainError(err)
	}

	s.publish(events.WorkflowChanged, actor, map[string]any{"template": name})
	return &WorkflowView{Statuses: statuses}, nil
}

// reassign moves a task as part of a workflow change. WIP limits do not
// apply.
func (s *WorkflowService) reassign(q sqlite.DBTX, h *board.History, task *domain.Task, from, to *domain.WorkflowStatus, actor string, now time.Time) error {
	tr := board.NewTransition(task, from, to, now)
	tr.Actor = actor
	if err := tr.Apply(h); err != nil {
		return err
	}
	if tr.NoOp() {
		return nil
	}
	if err := persistTransition(q, tr); err != nil {
		tr.Rollback(h)
		return transitionFailed(task.ID, err)
	}
	return nil
}

// AddStatusInput contains the input for adding a status.
type AddStatusInput struct {
	Name            string
	Color           string
	Category        domain.StatusCategory
	WipLimit        *int
	ColumnGroupID   *string
	AgingThresholds *domain.AgingThresholds
}

// AddStatus appends a status at the end of the workflow.
func (s *WorkflowService) AddStatus(input AddStatusInput, actor string) (*domain.WorkflowStatus, error) {
	if errs := validateStatusFields(&input.Name, input.Category, input.WipLimit, input.AgingThresholds); len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}

	var status *domain.WorkflowStatus
	err := s.edit(func(tx *sql.Tx, ws *workflowState) error {
		if input.ColumnGroupID != nil {
			if err := groupExists(tx, *input.ColumnGroupID); err != nil {
				return err
			}
		}
		status = &domain.WorkflowStatus{
			ID:              idgen.MustGenerate(idgen.StatusPrefix),
			Name:            strings.TrimSpace(input.Name),
			Color:           input.Color,
			Order:           len(ws.Statuses),
			WipLimit:        input.WipLimit,
			ColumnGroupID:   input.ColumnGroupID,
			AgingThresholds: input.AgingThresholds,
			Category:        input.Category,
			CreatedAt:       s.now(),
		}
		return sqlite.NewStatusRepository(tx).Create(status)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.WorkflowChanged, actor, status)
	return status, nil
}

// UpdateStatusInput contains the input for updating a status. Nil fields are
// left unchanged; the Clear flags remove optional values.
type UpdateStatusInput struct {
	Name            *string
	Color           *string
	Category        *domain.StatusCategory
	WipLimit        *int
	ClearWipLimit   bool
	ColumnGroupID   *string
	ClearGroup      bool
	AgingThresholds *domain.AgingThresholds
	ClearAging      bool
}

// UpdateStatus changes a status's presentation, WIP limit, group or aging
// thresholds.
func (s *WorkflowService) UpdateStatus(id string, input UpdateStatusInput, actor string) (*domain.WorkflowStatus, error) {
	category := domain.CategoryNone
	if input.Category != nil {
		category = *input.Category
	}
	if errs := validateStatusFields(input.Name, category, input.WipLimit, input.AgingThresholds); len(errs) > 0 {
		return nil, domain.NewValidationError(errs)
	}

	var status *domain.WorkflowStatus
	err := s.edit(func(tx *sql.Tx, ws *workflowState) error {
		status = domain.FindStatus(ws.Statuses, id)
		if status == nil {
			return domain.NewStatusNotFoundError(id)
		}
		if input.Name != nil {
			status.Name = strings.TrimSpace(*input.Name)
		}
		if input.Color != nil {
			status.Color = *input.Color
		}
		if input.Category != nil {
			status.Category = *input.Category
		}
		switch {
		case input.ClearWipLimit:
			status.WipLimit = nil
		case input.WipLimit != nil:
			status.WipLimit = input.WipLimit
		}
		switch {
		case input.ClearGroup:
			status.ColumnGroupID = nil
		case input.ColumnGroupID != nil:
			if err := groupExists(tx, *input.ColumnGroupID); err != nil {
				return err
			}
			status.ColumnGroupID = input.ColumnGroupID
		}
		switch {
		case input.ClearAging:
			status.AgingThresholds = nil
		case input.AgingThresholds != nil:
			status.AgingThresholds = input.AgingThresholds
		}
		return sqlite.NewStatusRepository(tx).Update(status)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.WorkflowChanged, actor, status)
	return status, nil
}

// UpdateWipLimit sets or, with a nil limit, removes a status's WIP limit.
func (s *WorkflowService) UpdateWipLimit(id string, limit *int, actor string) (*domain.WorkflowStatus, error) {
	return s.UpdateStatus(id, UpdateStatusInput{WipLimit: limit, ClearWipLimit: limit == nil}, actor)
}

// AssignGroup puts a status into a column group or, with a nil group, takes
// it out of its group.
func (s *WorkflowService) AssignGroup(statusID string, groupID *string, actor string) (*domain.WorkflowStatus, error) {
	return s.UpdateStatus(statusID, UpdateStatusInput{ColumnGroupID: groupID, ClearGroup: groupID == nil}, actor)
}

// Archive hides a status from the board and stops it from receiving tasks.
// Tasks already in it stay. The default status cannot be archived.
func (s *WorkflowService) Archive(id, actor string) (*domain.WorkflowStatus, error) {
	return s.setArchived(id, true, actor)
}

// Unarchive reverses Archive.
func (s *WorkflowService) Unarchive(id, actor string) (*domain.WorkflowStatus, error) {
	return s.setArchived(id, false, actor)
}

func (s *WorkflowService) setArchived(id string, archived bool, actor string) (*domain.WorkflowStatus, error) {
	var status *domain.WorkflowStatus
	err := s.edit(func(tx *sql.Tx, ws *workflowState) error {
		status = domain.FindStatus(ws.Statuses, id)
		if status == nil {
			return domain.NewStatusNotFoundError(id)
		}
		if status.IsArchived == archived {
			return nil
		}
		if archived && status.IsDefault {
			return domain.NewDefaultStatusRequiredError("the default status cannot be archived")
		}
		status.IsArchived = archived
		status.ArchivedAt = nil
		if archived {
			now := s.now()
			status.ArchivedAt = &now
		}
		return sqlite.NewStatusRepository(tx).Update(status)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.WorkflowChanged, actor, status)
	return status, nil
}

// Reorder sets the column order. ids must list every status exactly once.
func (s *WorkflowService) Reorder(ids []string, actor string) (*WorkflowView, error) {
	var statuses []*domain.WorkflowStatus
	err := s.edit(func(tx *sql.Tx, ws *workflowState) error {
		if err := domain.ReorderStatuses(ws.Statuses, ids); err != nil {
			return err
		}
		statuses = ws.Statuses
		return sqlite.NewStatusRepository(tx).UpdatePositions(statuses)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.WorkflowChanged, actor, map[string]any{"order": ids})
	return &WorkflowView{Statuses: statuses}, nil
}

// DeleteResult describes a deleted status.
type DeleteResult struct {
	DeletedID  string                 `json:"deleted_id"`
	Fallback   *domain.WorkflowStatus `json:"fallback"`
	Reassigned []string               `json:"reassigned"`
}

// Delete removes a status. Its tasks move to fallbackID, or to the default
// status when fallbackID is empty, with history entries recorded for each
// move. The remaining statuses are reindexed.
func (s *WorkflowService) Delete(id, fallbackID, actor string) (*DeleteResult, error) {
	result := &DeleteResult{DeletedID: id, Reassigned: []string{}}
	err := s.edit(func(tx *sql.Tx, ws *workflowState) error {
		fallback, err := domain.ResolveFallback(ws.Statuses, id, fallbackID)
		if err != nil {
			return err
		}
		deleting := domain.FindStatus(ws.Statuses, id)
		result.Fallback = fallback

		all, err := sqlite.NewTaskRepository(tx).ListAll()
		if err != nil {
			return err
		}
		moving := board.TasksInStatus(all, id)
		ids := make([]string, 0, len(moving))
		for _, t := range moving {
			ids = append(ids, t.ID)
		}
		if len(ids) > 0 {
			h, err := s.history(tx, ids...)
			if err != nil {
				return err
			}
			now := s.now()
			for _, task := range moving {
				if err := s.reassign(tx, h, task, deleting, fallback, actor, now); err != nil {
					return err
				}
			}
			result.Reassigned = ids
		}

		repo := sqlite.NewStatusRepository(tx)
		if err := repo.Delete(id); err != nil {
			return err
		}
		ws.Statuses = domain.RemoveStatus(ws.Statuses, id)
		return repo.UpdatePositions(ws.Statuses)
	})
	if err != nil {
		return nil, err
	}

	s.publish(events.WorkflowChanged, actor, result)
	return result, nil
}

// edit runs a structural workflow change in a transaction, storing the
// legacy statuses first when needed.
func (s *WorkflowService) edit(fn func(tx *sql.Tx, ws *workflowState) error) error {
	err := sqlite.WithTx(s.db, func(tx *sql.Tx) error {
		ws, err := s.workflow(tx)
		if err != nil {
			return err
		}
		if err := s.materialize(tx, ws); err != nil {
			return err
		}
		if err := fn(tx, ws); err != nil {
			return err
		}
		return domain.ValidateWorkflow(ws.Statuses)
	})
	return asDomainError(err)
}

func validateStatusFields(name *string, category domain.StatusCategory, wip *int, aging *domain.AgingThresholds) []string {
	var errs []string
	if name != nil && strings.TrimSpace(*name) == "" {
		errs = append(errs, "name is required")
	}
	if !category.IsValid() {
		errs = append(errs, fmt.Sprintf("invalid category %q", category))
	}
	if wip != nil && *wip < 0 {
		errs = append(errs, "wip_limit must be zero or greater")
	}
	if aging != nil {
		if aging.WarningHours < 0 || aging.CriticalHours < 0 {
			errs = append(errs, "aging thresholds must be zero or greater")
		}
		if aging.WarningHours > 0 && aging.CriticalHours > 0 && aging.CriticalHours < aging.WarningHours {
			errs = append(errs, "critical aging threshold must not be below the warning threshold")
		}
	}
	return errs
}

func groupExists(q sqlite.DBTX, id string) error {
	_, err := sqlite.NewGroupRepository(q).GetByID(id)
	if err == sql.ErrNoRows {
		return domain.NewGroupNotFoundError(id)
	}
	return err
}

// CreateGroupInput contains the input for creating a column group.
type CreateGroupInput struct {
	Name  string
	Color string
}

// CreateGroup appends a column group.
func (s *WorkflowService) CreateGroup(input CreateGroupInput, actor string) (*domain.ColumnGroup, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.NewValidationError([]string{"name is required"})
	}
	repo := sqlite.NewGroupRepository(s.db)
	existing, err := repo.List()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	group := &domain.ColumnGroup{
		ID:        idgen.MustGenerate(idgen.GroupPrefix),
		Name:      strings.TrimSpace(input.Name),
		Color:     input.Color,
		Order:     len(existing),
		StatusIDs: []string{},
	}
	if err := repo.Create(group); err != nil {
		return nil, domain.NewInternalError(err)
	}
	s.publish(events.WorkflowChanged, actor, group)
	return group, nil
}

// Groups returns the column groups in order.
func (s *WorkflowService) Groups() ([]*domain.ColumnGroup, error) {
	groups, err := sqlite.NewGroupRepository(s.db).List()
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	return groups, nil
}

// SetGroupCollapsed stores whether a group is shown collapsed.
func (s *WorkflowService) SetGroupCollapsed(id string, collapsed bool, actor string) (*domain.ColumnGroup, error) {
	repo := sqlite.NewGroupRepository(s.db)
	group, err := repo.GetByID(id)
	if err == sql.ErrNoRows {
		return nil, domain.NewGroupNotFoundError(id)
	}
	if err != nil {
		return nil, domain.NewInternalError(err)
	}
	group.IsCollapsed = collapsed
	if err := repo.Update(group); err != nil {
		return nil, domain.NewInternalError(err)
	}
	s.publish(events.WorkflowChanged, actor, group)
	return group, nil
}

// DeleteGroup removes a column group; its statuses become ungrouped.
func (s *WorkflowService) DeleteGroup(id, actor string) error {
	if err := sqlite.NewGroupRepository(s.db).Delete(id); err != nil {
		if err == sql.ErrNoRows {
			return domain.NewGroupNotFoundError(id)
		}
		return domain.NewInternalError(err)
	}
	s.publish(events.WorkflowChanged, actor, map[string]any{"group_id": id, "deleted": true})
	return nil
}

// Settings returns the project's settings, or the configured defaults when
// none were saved.
func (s *WorkflowService) Settings() (domain.WorkflowSettings, error) {
	ws, err := s.workflow(s.db)
	if err != nil {
		return domain.WorkflowSettings{}, domain.NewInternalError(err)
	}
	return ws.Settings, nil
}

// UpdateSettingsInput contains the input for updating settings. Nil fields
// are left unchanged.
type UpdateSettingsInput struct {
	EnforceWipLimits    *bool
	SwimlaneProperty    *domain.SwimlaneProperty
	ShowArchivedColumns *bool
}

// UpdateSettings changes and stores the project's settings.
func (s *WorkflowService) UpdateSettings(input UpdateSettingsInput, actor string) (domain.WorkflowSettings, error) {
	if input.SwimlaneProperty != nil && !input.SwimlaneProperty.IsValid() {
		return domain.WorkflowSettings{}, domain.NewValidationError([]string{
			fmt.Sprintf("invalid swimlane property %q", *input.SwimlaneProperty),
		})
	}

	settings, err := s.Settings()
	if err != nil {
		return settings, err
	}
	if input.EnforceWipLimits != nil {
		settings.EnforceWipLimits = *input.EnforceWipLimits
	}
	if input.SwimlaneProperty != nil {
		settings.SwimlaneProperty = *input.SwimlaneProperty
	}
	if input.ShowArchivedColumns != nil {
		settings.ShowArchivedColumns = *input.ShowArchivedColumns
	}

	if err := sqlite.NewSettingsRepository(s.db).Save(settings, s.now()); err != nil {
		return settings, domain.NewInternalError(err)
	}
	s.publish(events.SettingsChanged, actor, settings)
	return settings, nil
}
