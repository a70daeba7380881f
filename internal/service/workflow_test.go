package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/events"
)

func statusNames(statuses []*domain.WorkflowStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.Name)
	}
	return out
}

func TestWorkflowService_Statuses_Legacy(t *testing.T) {
	f := newFixture(t)

	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.True(t, view.Legacy)
	require.Equal(t, []string{"To Do", "In Progress", "In Review", "Done", "Blocked"}, statusNames(view.Statuses))
	require.True(t, view.Statuses[0].IsDefault)
}

func TestWorkflowService_AddStatus_StoresLegacyStatuses(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "a", "")

	qa, err := f.workflow.AddStatus(AddStatusInput{
		Name:     " QA ",
		Color:    "#f59e0b",
		Category: domain.CategoryInProgress,
		WipLimit: intPtr(2),
	}, "alice")
	require.NoError(t, err)
	require.Equal(t, "QA", qa.Name)
	require.Equal(t, 5, qa.Order)

	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.False(t, view.Legacy)
	require.Len(t, view.Statuses, 6)

	got, err := f.tasks.Get(task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.StatusID)
	require.Equal(t, "TODO", *got.StatusID)

	_, err = f.moves.Move(task.ID, qa.ID, "")
	require.NoError(t, err)
	history, err := f.tasks.History(task.ID)
	require.NoError(t, err)
	require.Equal(t, "QA", history[len(history)-1].StatusName)

	require.Contains(t, f.events.types(), events.WorkflowChanged)
}

func TestWorkflowService_AddStatus_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input AddStatusInput
		code  domain.ErrorCode
	}{
		{"empty name", AddStatusInput{Name: " "}, domain.ErrCodeValidationFailed},
		{"negative wip", AddStatusInput{Name: "QA", WipLimit: intPtr(-1)}, domain.ErrCodeValidationFailed},
		{"unknown category", AddStatusInput{Name: "QA", Category: "later"}, domain.ErrCodeValidationFailed},
		{"critical below warning", AddStatusInput{Name: "QA", AgingThresholds: &domain.AgingThresholds{WarningHours: 48, CriticalHours: 24}}, domain.ErrCodeValidationFailed},
		{"unknown group", AddStatusInput{Name: "QA", ColumnGroupID: strPtr("grp-missing")}, domain.ErrCodeGroupNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.workflow.AddStatus(tt.input, "")
			requireCode(t, err, tt.code)
		})
	}

	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.True(t, view.Legacy)
}

func TestWorkflowService_UpdateStatus(t *testing.T) {
	f := newFixture(t)

	cat := domain.CategoryBlocked
	st, err := f.workflow.UpdateStatus("IN_REVIEW", UpdateStatusInput{
		Name:            strPtr("Waiting"),
		Category:        &cat,
		WipLimit:        intPtr(3),
		AgingThresholds: &domain.AgingThresholds{WarningHours: 24, CriticalHours: 72},
	}, "")
	require.NoError(t, err)
	require.Equal(t, "Waiting", st.Name)
	require.Equal(t, 3, *st.WipLimit)

	got := f.statusNamed(t, "Waiting")
	require.Equal(t, domain.CategoryBlocked, got.Category)
	require.Equal(t, 72, got.AgingThresholds.CriticalHours)

	st, err = f.workflow.UpdateStatus("IN_REVIEW", UpdateStatusInput{ClearWipLimit: true, ClearAging: true}, "")
	require.NoError(t, err)
	require.Nil(t, st.WipLimit)
	require.Nil(t, st.AgingThresholds)

	_, err = f.workflow.UpdateStatus("NOPE", UpdateStatusInput{Name: strPtr("x")}, "")
	requireCode(t, err, domain.ErrCodeStatusNotFound)
}

func TestWorkflowService_ApplyTemplate(t *testing.T) {
	f := newFixture(t)
	todo := f.create(t, "todo", "")
	doing := f.create(t, "doing", "IN_PROGRESS")
	done := f.create(t, "done", "DONE")
	blocked := f.create(t, "blocked", "BLOCKED")

	f.clock.advance(time.Hour)
	view, err := f.workflow.ApplyTemplate("kanban", "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"Backlog", "Ready", "In Progress", "Review", "Done"}, statusNames(view.Statuses))

	tests := []struct {
		task *domain.Task
		want string
	}{
		{todo, "Backlog"},
		{doing, "In Progress"},
		{done, "Done"},
		{blocked, "Backlog"},
	}
	for _, tt := range tests {
		require.Equal(t, f.statusNamed(t, tt.want).ID, f.statusOf(t, tt.task.ID), tt.task.Title)
	}

	history, err := f.tasks.History(todo.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "To Do", history[0].StatusName)
	require.Equal(t, "Backlog", history[1].StatusName)
	require.Equal(t, "alice", history[1].ChangedBy)

	_, err = f.workflow.ApplyTemplate("basic", "")
	requireCode(t, err, domain.ErrCodeValidationFailed)
}

func TestWorkflowService_Templates(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Templates = []domain.WorkflowTemplate{{
			Name: "tiny",
			Statuses: []domain.TemplateStatus{
				{Name: "Open", Category: domain.CategoryTodo},
				{Name: "Closed", Category: domain.CategoryDone},
			},
		}}
	})

	var names []string
	for _, tmpl := range f.workflow.Templates() {
		names = append(names, tmpl.Name)
	}
	require.Equal(t, []string{"basic", "kanban", "scrum", "tiny"}, names)

	_, err := f.workflow.ApplyTemplate("missing", "")
	requireCode(t, err, domain.ErrCodeValidationFailed)

	view, err := f.workflow.ApplyTemplate("tiny", "")
	require.NoError(t, err)
	require.Equal(t, []string{"Open", "Closed"}, statusNames(view.Statuses))
}

func TestWorkflowService_Archive(t *testing.T) {
	f := newFixture(t)
	task := f.create(t, "a", "")

	_, err := f.workflow.Archive("TODO", "")
	requireCode(t, err, domain.ErrCodeDefaultStatusRequired)

	st, err := f.workflow.Archive("IN_REVIEW", "")
	require.NoError(t, err)
	require.True(t, st.IsArchived)
	require.Equal(t, start, *st.ArchivedAt)

	_, err = f.moves.Move(task.ID, "IN_REVIEW", "")
	requireCode(t, err, domain.ErrCodeArchivedTarget)

	view, err := f.boards.Board(BoardQuery{})
	require.NoError(t, err)
	require.Len(t, view.Columns, 4)

	st, err = f.workflow.Unarchive("IN_REVIEW", "")
	require.NoError(t, err)
	require.False(t, st.IsArchived)
	require.Nil(t, st.ArchivedAt)

	_, err = f.moves.Move(task.ID, "IN_REVIEW", "")
	require.NoError(t, err)
}

func TestWorkflowService_Reorder(t *testing.T) {
	f := newFixture(t)

	view, err := f.workflow.Reorder([]string{"BLOCKED", "TODO", "IN_PROGRESS", "IN_REVIEW", "DONE"}, "")
	require.NoError(t, err)
	require.Equal(t, []string{"Blocked", "To Do", "In Progress", "In Review", "Done"}, statusNames(view.Statuses))

	stored, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.Equal(t, statusNames(view.Statuses), statusNames(stored.Statuses))
	for i, s := range stored.Statuses {
		require.Equal(t, i, s.Order)
	}

	_, err = f.workflow.Reorder([]string{"TODO", "DONE"}, "")
	requireCode(t, err, domain.ErrCodeValidationFailed)
}

func TestWorkflowService_Delete(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "a", "IN_REVIEW")
	b := f.create(t, "b", "IN_REVIEW")
	c := f.create(t, "c", "DONE")

	f.clock.advance(time.Hour)
	res, err := f.workflow.Delete("IN_REVIEW", "", "alice")
	require.NoError(t, err)
	require.Equal(t, "TODO", res.Fallback.ID)
	require.ElementsMatch(t, []string{a.ID, b.ID}, res.Reassigned)

	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.Equal(t, []string{"To Do", "In Progress", "Done", "Blocked"}, statusNames(view.Statuses))
	for i, s := range view.Statuses {
		require.Equal(t, i, s.Order)
	}

	require.Equal(t, "TODO", f.statusOf(t, a.ID))
	require.Equal(t, "DONE", f.statusOf(t, c.ID))
	history, err := f.tasks.History(a.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "In Review", history[0].StatusName)
	require.Equal(t, start.Add(time.Hour), *history[0].ExitedAt)
	require.Equal(t, "To Do", history[1].StatusName)
	require.Equal(t, "alice", history[1].ChangedBy)
}

func TestWorkflowService_Delete_ReindexesStoredStatuses(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.ApplyTemplate("kanban", "")
	require.NoError(t, err)
	ready := f.statusNamed(t, "Ready")
	task := f.create(t, "a", ready.ID)

	res, err := f.workflow.Delete(ready.ID, "", "")
	require.NoError(t, err)
	require.Equal(t, []string{task.ID}, res.Reassigned)
	require.Equal(t, f.statusNamed(t, "Backlog").ID, f.statusOf(t, task.ID))

	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.Equal(t, []string{"Backlog", "In Progress", "Review", "Done"}, statusNames(view.Statuses))
	for i, s := range view.Statuses {
		require.Equal(t, i, s.Order)
	}

	// Later structural edits see a consistent workflow.
	qa, err := f.workflow.AddStatus(AddStatusInput{Name: "QA"}, "")
	require.NoError(t, err)
	require.Equal(t, 4, qa.Order)
	_, err = f.workflow.Delete(f.statusNamed(t, "Review").ID, "", "")
	require.NoError(t, err)

	view, err = f.workflow.Statuses()
	require.NoError(t, err)
	require.Equal(t, []string{"Backlog", "In Progress", "Done", "QA"}, statusNames(view.Statuses))
}

func TestWorkflowService_Delete_ExplicitFallback(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "a", "BLOCKED")

	res, err := f.workflow.Delete("BLOCKED", "IN_PROGRESS", "")
	require.NoError(t, err)
	require.Equal(t, "IN_PROGRESS", res.Fallback.ID)
	require.Equal(t, "IN_PROGRESS", f.statusOf(t, a.ID))
}

func TestWorkflowService_Delete_Rejects(t *testing.T) {
	f := newFixture(t)
	_, err := f.workflow.Archive("DONE", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		id       string
		fallback string
		code     domain.ErrorCode
	}{
		{"default status", "TODO", "", domain.ErrCodeDefaultStatusRequired},
		{"unknown status", "NOPE", "", domain.ErrCodeStatusNotFound},
		{"unknown fallback", "BLOCKED", "NOPE", domain.ErrCodeStatusNotFound},
		{"fallback is itself", "BLOCKED", "BLOCKED", domain.ErrCodeValidationFailed},
		{"archived fallback", "BLOCKED", "DONE", domain.ErrCodeArchivedTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.workflow.Delete(tt.id, tt.fallback, "")
			requireCode(t, err, tt.code)
		})
	}

	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	require.Len(t, view.Statuses, 5)
}

func TestWorkflowService_Groups(t *testing.T) {
	f := newFixture(t)

	group, err := f.workflow.CreateGroup(CreateGroupInput{Name: "Active", Color: "#3b82f6"}, "")
	require.NoError(t, err)
	require.Equal(t, 0, group.Order)

	_, err = f.workflow.AssignGroup("IN_PROGRESS", &group.ID, "")
	require.NoError(t, err)
	_, err = f.workflow.AssignGroup("IN_REVIEW", &group.ID, "")
	require.NoError(t, err)

	groups, err := f.workflow.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, []string{"IN_PROGRESS", "IN_REVIEW"}, groups[0].StatusIDs)

	_, err = f.workflow.AssignGroup("IN_REVIEW", nil, "")
	require.NoError(t, err)
	_, err = f.workflow.AssignGroup("DONE", strPtr("grp-missing"), "")
	requireCode(t, err, domain.ErrCodeGroupNotFound)

	collapsed, err := f.workflow.SetGroupCollapsed(group.ID, true, "")
	require.NoError(t, err)
	require.True(t, collapsed.IsCollapsed)

	groups, err = f.workflow.Groups()
	require.NoError(t, err)
	require.Equal(t, []string{"IN_PROGRESS"}, groups[0].StatusIDs)
	require.True(t, groups[0].IsCollapsed)

	require.NoError(t, f.workflow.DeleteGroup(group.ID, ""))
	require.Nil(t, f.statusNamed(t, "In Progress").ColumnGroupID)
	requireCode(t, f.workflow.DeleteGroup(group.ID, ""), domain.ErrCodeGroupNotFound)

	_, err = f.workflow.CreateGroup(CreateGroupInput{Name: ""}, "")
	requireCode(t, err, domain.ErrCodeValidationFailed)
}

func TestWorkflowService_Settings(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Defaults = domain.WorkflowSettings{EnforceWipLimits: true, SwimlaneProperty: domain.SwimlanePriority}
	})

	settings, err := f.workflow.Settings()
	require.NoError(t, err)
	require.Equal(t, domain.WorkflowSettings{EnforceWipLimits: true, SwimlaneProperty: domain.SwimlanePriority}, settings)

	lanes := domain.SwimlaneAssignee
	settings, err = f.workflow.UpdateSettings(UpdateSettingsInput{SwimlaneProperty: &lanes, ShowArchivedColumns: boolPtr(true)}, "")
	require.NoError(t, err)
	require.Equal(t, domain.WorkflowSettings{EnforceWipLimits: true, SwimlaneProperty: domain.SwimlaneAssignee, ShowArchivedColumns: true}, settings)

	stored, err := f.workflow.Settings()
	require.NoError(t, err)
	require.Equal(t, settings, stored)

	bad := domain.SwimlaneProperty("status")
	_, err = f.workflow.UpdateSettings(UpdateSettingsInput{SwimlaneProperty: &bad}, "")
	requireCode(t, err, domain.ErrCodeValidationFailed)

	require.Equal(t, []string{events.SettingsChanged}, f.events.types())
}
