// Package client is the HTTP client the flowboard CLI uses to talk to a
// running server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/board"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/service"
)

// Client is an HTTP client for the flowboard server API.
type Client struct {
	baseURL string       // http://host:port
	actor   string       // X-Flowboard-Actor header value
	project string       // Project name for URL paths
	http    *http.Client // HTTP client
}

// NewClient creates a new flowboard API client.
func NewClient(host string, port int, project string, actor string) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		actor:   actor,
		project: project,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// =============================================================================
// System
// =============================================================================

// Health checks if the server is healthy.
func (c *Client) Health(ctx context.Context) error {
	var health healthResponse
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, http.StatusOK, &health); err != nil {
		if errors.Is(err, ErrServerNotRunning) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrServerUnhealthy, err)
	}
	if health.Status != "ok" {
		return ErrServerUnhealthy
	}
	return nil
}

// ListProjects returns a list of all project names.
func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var projects []string
	err := c.do(ctx, http.MethodGet, "/v1/projects", nil, http.StatusOK, &projects)
	return projects, err
}

// =============================================================================
// Tasks
// =============================================================================

// CreateTask creates a new task.
func (c *Client) CreateTask(ctx context.Context, req request.CreateTaskRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPost, c.projectPath("/tasks"), req, http.StatusCreated, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask retrieves a task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodGet, c.projectPath("/tasks/"+url.PathEscape(id)), nil, http.StatusOK, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks lists tasks with optional filtering.
func (c *Client) ListTasks(ctx context.Context, filter TaskFilter) (*TaskListResponse, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.Assignee != "" {
		params.Set("assignee", filter.Assignee)
	}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(filter.PerPage))
	}

	path := c.projectPath("/tasks")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var raw paginatedTaskResponse
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &raw); err != nil {
		return nil, err
	}

	return &TaskListResponse{
		Data: raw.Data,
		Pagination: &Pagination{
			Page:       raw.Pagination.Page,
			PerPage:    raw.Pagination.PerPage,
			Total:      raw.Pagination.Total,
			TotalPages: raw.Pagination.TotalPages,
		},
	}, nil
}

// UpdateTask updates the set fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id string, req request.UpdateTaskRequest) (*domain.Task, error) {
	var task domain.Task
	if err := c.do(ctx, http.MethodPatch, c.projectPath("/tasks/"+url.PathEscape(id)), req, http.StatusOK, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.projectPath("/tasks/"+url.PathEscape(id)), nil, http.StatusNoContent, nil)
}

// TaskHistory returns the status history of a task, oldest first.
func (c *Client) TaskHistory(ctx context.Context, id string) ([]*domain.StatusHistoryEntry, error) {
	var entries []*domain.StatusHistoryEntry
	err := c.do(ctx, http.MethodGet, c.projectPath("/tasks/"+url.PathEscape(id)+"/history"), nil, http.StatusOK, &entries)
	return entries, err
}

// =============================================================================
// Transitions
// =============================================================================

// MoveTask moves a task into a status.
func (c *Client) MoveTask(ctx context.Context, id, statusID string) (*service.MoveResult, error) {
	var result service.MoveResult
	body := request.MoveTaskRequest{StatusID: statusID}
	if err := c.do(ctx, http.MethodPost, c.projectPath("/tasks/"+url.PathEscape(id)+"/move"), body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MoveTasks moves several tasks into one status, all or nothing.
func (c *Client) MoveTasks(ctx context.Context, ids []string, statusID string) (*service.BulkMoveResult, error) {
	var result service.BulkMoveResult
	body := request.BulkMoveRequest{TaskIDs: ids, StatusID: statusID}
	if err := c.do(ctx, http.MethodPost, c.projectPath("/tasks/move"), body, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RevertTask undoes the task's most recent move.
func (c *Client) RevertTask(ctx context.Context, id string) (*service.RevertResult, error) {
	var result service.RevertResult
	if err := c.do(ctx, http.MethodPost, c.projectPath("/tasks/"+url.PathEscape(id)+"/revert"), nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// =============================================================================
// Workflow
// =============================================================================

// Statuses returns the effective workflow of the project.
func (c *Client) Statuses(ctx context.Context) (*service.WorkflowView, error) {
	var view service.WorkflowView
	if err := c.do(ctx, http.MethodGet, c.projectPath("/statuses"), nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateStatus appends a status to the workflow.
func (c *Client) CreateStatus(ctx context.Context, req request.CreateStatusRequest) (*domain.WorkflowStatus, error) {
	var status domain.WorkflowStatus
	if err := c.do(ctx, http.MethodPost, c.projectPath("/statuses"), req, http.StatusCreated, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// UpdateStatus changes the set fields of a status.
func (c *Client) UpdateStatus(ctx context.Context, id string, req request.UpdateStatusRequest) (*domain.WorkflowStatus, error) {
	var status domain.WorkflowStatus
	if err := c.do(ctx, http.MethodPatch, c.projectPath("/statuses/"+url.PathEscape(id)), req, http.StatusOK, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ArchiveStatus hides a status from the board and stops it receiving tasks.
func (c *Client) ArchiveStatus(ctx context.Context, id string) (*domain.WorkflowStatus, error) {
	return c.statusAction(ctx, id, "/archive")
}

// UnarchiveStatus restores an archived status.
func (c *Client) UnarchiveStatus(ctx context.Context, id string) (*domain.WorkflowStatus, error) {
	return c.statusAction(ctx, id, "/unarchive")
}

func (c *Client) statusAction(ctx context.Context, id, action string) (*domain.WorkflowStatus, error) {
	var status domain.WorkflowStatus
	if err := c.do(ctx, http.MethodPost, c.projectPath("/statuses/"+url.PathEscape(id)+action), nil, http.StatusOK, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ReorderStatuses sets the column order.
func (c *Client) ReorderStatuses(ctx context.Context, ids []string) (*service.WorkflowView, error) {
	var view service.WorkflowView
	body := request.ReorderStatusesRequest{StatusIDs: ids}
	if err := c.do(ctx, http.MethodPost, c.projectPath("/statuses/reorder"), body, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteStatus removes a status, moving its tasks to fallbackID or, when
// empty, the default status.
func (c *Client) DeleteStatus(ctx context.Context, id, fallbackID string) (*service.DeleteResult, error) {
	path := c.projectPath("/statuses/" + url.PathEscape(id))
	if fallbackID != "" {
		path += "?fallback=" + url.QueryEscape(fallbackID)
	}

	var result service.DeleteResult
	if err := c.do(ctx, http.MethodDelete, path, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Templates lists the workflow templates the server offers.
func (c *Client) Templates(ctx context.Context) ([]domain.WorkflowTemplate, error) {
	var templates []domain.WorkflowTemplate
	err := c.do(ctx, http.MethodGet, c.projectPath("/statuses/templates"), nil, http.StatusOK, &templates)
	return templates, err
}

// ApplyTemplate replaces the legacy statuses with a named template.
func (c *Client) ApplyTemplate(ctx context.Context, name string) (*service.WorkflowView, error) {
	var view service.WorkflowView
	body := request.ApplyTemplateRequest{Name: name}
	if err := c.do(ctx, http.MethodPost, c.projectPath("/statuses/template"), body, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Groups lists the column groups.
func (c *Client) Groups(ctx context.Context) ([]*domain.ColumnGroup, error) {
	var groups []*domain.ColumnGroup
	err := c.do(ctx, http.MethodGet, c.projectPath("/groups"), nil, http.StatusOK, &groups)
	return groups, err
}

// CreateGroup creates a column group.
func (c *Client) CreateGroup(ctx context.Context, name, color string) (*domain.ColumnGroup, error) {
	var group domain.ColumnGroup
	body := request.CreateGroupRequest{Name: name, Color: color}
	if err := c.do(ctx, http.MethodPost, c.projectPath("/groups"), body, http.StatusCreated, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// Settings returns the project's board settings.
func (c *Client) Settings(ctx context.Context) (*domain.WorkflowSettings, error) {
	var settings domain.WorkflowSettings
	if err := c.do(ctx, http.MethodGet, c.projectPath("/settings"), nil, http.StatusOK, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings saves the set fields of the board settings.
func (c *Client) UpdateSettings(ctx context.Context, req request.SettingsRequest) (*domain.WorkflowSettings, error) {
	var settings domain.WorkflowSettings
	if err := c.do(ctx, http.MethodPut, c.projectPath("/settings"), req, http.StatusOK, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// =============================================================================
// Board
// =============================================================================

// Board computes the board. Query overrides are not saved.
func (c *Client) Board(ctx context.Context, q request.BoardQueryRequest) (*board.View, error) {
	var view board.View
	if err := c.do(ctx, http.MethodPost, c.projectPath("/board/query"), q, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ColumnMetrics returns the metrics of one column.
func (c *Client) ColumnMetrics(ctx context.Context, statusID string) (*board.ColumnMetrics, error) {
	var m board.ColumnMetrics
	if err := c.do(ctx, http.MethodGet, c.projectPath("/metrics/columns/"+url.PathEscape(statusID)), nil, http.StatusOK, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AllColumnMetrics returns the metrics of every visible column.
func (c *Client) AllColumnMetrics(ctx context.Context) ([]board.ColumnMetrics, error) {
	var m []board.ColumnMetrics
	err := c.do(ctx, http.MethodGet, c.projectPath("/metrics/columns"), nil, http.StatusOK, &m)
	return m, err
}

// SwimlaneMetrics returns per-lane metrics. An empty swimlane uses the saved
// setting.
func (c *Client) SwimlaneMetrics(ctx context.Context, swimlane string) ([]board.SwimlaneMetrics, error) {
	path := c.projectPath("/metrics/swimlanes")
	if swimlane != "" {
		path += "?swimlane=" + url.QueryEscape(swimlane)
	}

	var m []board.SwimlaneMetrics
	err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &m)
	return m, err
}

// =============================================================================
// Helper Methods
// =============================================================================

// projectPath constructs a URL path with the project prefix.
func (c *Client) projectPath(path string) string {
	return "/v1/projects/" + url.PathEscape(c.project) + path
}

// do sends a request and decodes the response into out when the server
// answers with want. Any other status is decoded as an API error.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, want int, out interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapConnectionError(fmt.Errorf("%s %s failed: %w", method, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return parseErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// newRequest creates a new HTTP request with common headers. A non-nil body
// is sent as JSON.
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = &buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(middleware.ActorHeader, c.actor)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
