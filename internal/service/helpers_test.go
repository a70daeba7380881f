package service

import (
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/store"
)

var start = time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db       *sql.DB
	cfg      Config
	clock    *clock
	events   *recorder
	tasks    *TaskService
	moves    *TransitionService
	workflow *WorkflowService
	boards   *BoardService
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()

	mgr, err := store.NewManager(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	db, err := mgr.GetDB("test")
	require.NoError(t, err)

	f := &fixture{db: db, clock: &clock{t: start}, events: &recorder{}}
	f.cfg = Config{
		Project:   "test",
		Defaults:  domain.DefaultSettings(),
		Publisher: f.events,
		Now:       f.clock.now,
	}
	for _, o := range opts {
		o(&f.cfg)
	}
	f.tasks = NewTaskService(db, f.cfg)
	f.moves = NewTransitionService(db, f.cfg)
	f.workflow = NewWorkflowService(db, f.cfg)
	f.boards = NewBoardService(db, f.cfg)
	return f
}

// create adds a task in status, or in the default status when status is "".
func (f *fixture) create(t *testing.T, title, status string) *domain.Task {
	t.Helper()
	input := CreateTaskInput{Title: title}
	if status != "" {
		input.StatusID = &status
	}
	task, err := f.tasks.Create(input, "tester")
	require.NoError(t, err)
	return task
}

func (f *fixture) statusOf(t *testing.T, id string) string {
	t.Helper()
	task, err := f.tasks.Get(id)
	require.NoError(t, err)
	return task.StatusKey()
}

func (f *fixture) statusNamed(t *testing.T, name string) *domain.WorkflowStatus {
	t.Helper()
	view, err := f.workflow.Statuses()
	require.NoError(t, err)
	for _, s := range view.Statuses {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no status named %q", name)
	return nil
}

func requireCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	require.Equal(t, code, de.Code, de.Message)
}

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }
