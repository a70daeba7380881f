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

// WorkflowHandler handles statuses, column groups and settings.
type WorkflowHandler struct {
	cfg service.Config
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(cfg service.Config) *WorkflowHandler {
	return &WorkflowHandler{cfg: cfg}
}

func (h *WorkflowHandler) service(r *http.Request) *service.WorkflowService {
	return service.NewWorkflowService(middleware.GetDB(r.Context()), projectConfig(r, h.cfg))
}

// ListStatuses handles GET /statuses.
func (h *WorkflowHandler) ListStatuses(w http.ResponseWriter, r *http.Request) {
	view, err := h.service(r).Statuses()
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, view)
}

// CreateStatus handles POST /statuses.
func (h *WorkflowHandler) CreateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.CreateStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}

	status, err := h.service(r).AddStatus(service.AddStatusInput{
		Name:            req.Name,
		Color:           req.Color,
		Category:        domain.StatusCategory(req.Category),
		WipLimit:        req.WipLimit,
		ColumnGroupID:   req.ColumnGroupID,
		AgingThresholds: req.AgingThresholds,
	}, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, status)
}

// UpdateStatus handles PATCH /statuses/{id}.
func (h *WorkflowHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}

	status, err := h.service(r).UpdateStatus(chi.URLParam(r, "id"), service.UpdateStatusInput{
		Name:            req.Name,
		Color:           req.Color,
		Category:        request.CategoryValue(req.Category),
		WipLimit:        req.WipLimit,
		ClearWipLimit:   req.ClearWipLimit,
		ColumnGroupID:   req.ColumnGroupID,
		ClearGroup:      req.ClearColumnGroup,
		AgingThresholds: req.AgingThresholds,
		ClearAging:      req.ClearAging,
	}, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, status)
}

// ArchiveStatus handles POST /statuses/{id}/archive.
func (h *WorkflowHandler) ArchiveStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service(r).Archive(chi.URLParam(r, "id"), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, status)
}

// UnarchiveStatus handles POST /statuses/{id}/unarchive.
func (h *WorkflowHandler) UnarchiveStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service(r).Unarchive(chi.URLParam(r, "id"), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, status)
}

// ReorderStatuses handles POST /statuses/reorder.
func (h *WorkflowHandler) ReorderStatuses(w http.ResponseWriter, r *http.Request) {
	var req request.ReorderStatusesRequest
	if !decodeValid(w, r, &req) {
		return
	}

	view, err := h.service(r).Reorder(req.StatusIDs, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, view)
}

// DeleteStatus handles DELETE /statuses/{id}?fallback=. Tasks in the status
// move to the fallback, or to the default status.
func (h *WorkflowHandler) DeleteStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.service(r).Delete(
		chi.URLParam(r, "id"),
		r.URL.Query().Get("fallback"),
		middleware.GetActor(r.Context()),
	)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// ListTemplates handles GET /statuses/templates.
func (h *WorkflowHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.service(r).Templates())
}

// ApplyTemplate handles POST /statuses/template.
func (h *WorkflowHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	var req request.ApplyTemplateRequest
	if !decodeValid(w, r, &req) {
		return
	}

	view, err := h.service(r).ApplyTemplate(req.Name, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, view)
}

// ListGroups handles GET /groups.
func (h *WorkflowHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service(r).Groups()
	if err != nil {
		response.Error(w, err)
		return
	}

	if groups == nil {
		groups = []*domain.ColumnGroup{}
	}

	response.OK(w, groups)
}

// CreateGroup handles POST /groups.
func (h *WorkflowHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGroupRequest
	if !decodeValid(w, r, &req) {
		return
	}

	group, err := h.service(r).CreateGroup(service.CreateGroupInput{
		Name:  req.Name,
		Color: req.Color,
	}, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, group)
}

// UpdateGroup handles PATCH /groups/{id}.
func (h *WorkflowHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateGroupRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, domain.NewValidationError([]string{"Invalid JSON body"}))
		return
	}
	if req.IsCollapsed == nil {
		response.Error(w, domain.NewValidationError([]string{"is_collapsed is required"}))
		return
	}

	group, err := h.service(r).SetGroupCollapsed(chi.URLParam(r, "id"), *req.IsCollapsed, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, group)
}

// DeleteGroup handles DELETE /groups/{id}.
func (h *WorkflowHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.service(r).DeleteGroup(chi.URLParam(r, "id"), middleware.GetActor(r.Context())); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// GetSettings handles GET /settings.
func (h *WorkflowHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service(r).Settings()
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, settings)
}

// UpdateSettings handles PUT /settings. Omitted fields keep their value.
func (h *WorkflowHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req request.SettingsRequest
	if !decodeValid(w, r, &req) {
		return
	}

	settings, err := h.service(r).UpdateSettings(service.UpdateSettingsInput{
		EnforceWipLimits:    req.EnforceWipLimits,
		SwimlaneProperty:    request.SwimlaneValue(req.SwimlaneProperty),
		ShowArchivedColumns: req.ShowArchivedColumns,
	}, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, settings)
}
