package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/api/response"
	"github.com/airyra/flowboard/internal/service"
)

// TransitionHandler handles task status transitions.
type TransitionHandler struct {
	cfg service.Config
}

// NewTransitionHandler creates a new TransitionHandler.
func NewTransitionHandler(cfg service.Config) *TransitionHandler {
	return &TransitionHandler{cfg: cfg}
}

func (h *TransitionHandler) service(r *http.Request) *service.TransitionService {
	return service.NewTransitionService(middleware.GetDB(r.Context()), projectConfig(r, h.cfg))
}

// MoveTask handles POST /tasks/{id}/move.
func (h *TransitionHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req request.MoveTaskRequest
	if !decodeValid(w, r, &req) {
		return
	}

	result, err := h.service(r).Move(chi.URLParam(r, "id"), req.StatusID, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// MoveTasks handles POST /tasks/move. The tasks move together or not at all.
func (h *TransitionHandler) MoveTasks(w http.ResponseWriter, r *http.Request) {
	var req request.BulkMoveRequest
	if !decodeValid(w, r, &req) {
		return
	}

	result, err := h.service(r).MoveBulk(req.TaskIDs, req.StatusID, middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// RevertTask handles POST /tasks/{id}/revert.
func (h *TransitionHandler) RevertTask(w http.ResponseWriter, r *http.Request) {
	result, err := h.service(r).Revert(chi.URLParam(r, "id"), middleware.GetActor(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}
