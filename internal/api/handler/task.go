package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/api/response"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/service"
)

// TaskHandler handles task CRUD operations.
type TaskHandler struct {
	cfg service.Config
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(cfg service.Config) *TaskHandler {
	return &TaskHandler{cfg: cfg}
}

func (h *TaskHandler) service(r *http.Request) *service.TaskService {
	return service.NewTaskService(middleware.GetDB(r.Context()), projectConfig(r, h.cfg))
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTaskRequest
	if !decodeValid(w, r, &req) {
		return
	}

	task, err := h.service(r).Create(service.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     request.PriorityValue(req.Priority),
		StatusID:     req.StatusID,
		AssigneeID:   req.AssigneeID,
		AssigneeName: req.AssigneeName,
		DueDate:      request.DateValue(req.DueDate),
	}, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, task)
}

// GetTask handles GET /tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.service(r).Get(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, task)
}

// ListTasks handles GET /tasks. The status and assignee query parameters
// filter the list; assignee=unassigned selects tasks without one.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	pagination := request.ParsePagination(r)

	tasks, total, err := h.service(r).List(service.ListTasksInput{
		StatusKey:  request.ParseOptional(r, "status"),
		AssigneeID: request.ParseOptional(r, "assignee"),
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	response.Paginated(w, tasks, pagination.Page, pagination.PerPage, total)
}

// UpdateTask handles PATCH /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTaskRequest
	if !decodeValid(w, r, &req) {
		return
	}

	task, err := h.service(r).Update(chi.URLParam(r, "id"), service.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     request.PriorityValue(req.Priority),
		AssigneeID:   req.AssigneeID,
		AssigneeName: req.AssigneeName,
		DueDate:      request.DateValue(req.DueDate),
		ClearDueDate: req.DueDate != nil && *req.DueDate == "",
	}, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, task)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service(r).Delete(chi.URLParam(r, "id"), middleware.GetActor(r.Context())); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// GetHistory handles GET /tasks/{id}/history.
func (h *TaskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service(r).History(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	if entries == nil {
		entries = []*domain.StatusHistoryEntry{}
	}

	response.OK(w, entries)
}
