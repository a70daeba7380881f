package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/api/request"
	"github.com/airyra/flowboard/internal/api/response"
	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/internal/service"
)

// BoardHandler serves computed boards and metrics.
type BoardHandler struct {
	cfg service.Config
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(cfg service.Config) *BoardHandler {
	return &BoardHandler{cfg: cfg}
}

func (h *BoardHandler) service(r *http.Request) *service.BoardService {
	return service.NewBoardService(middleware.GetDB(r.Context()), projectConfig(r, h.cfg))
}

// GetBoard handles GET /board?swimlane=&collapsed=a,b&show_archived=.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := request.BoardQueryRequest{Swimlane: request.ParseOptional(r, "swimlane")}
	if c := q.Get("collapsed"); c != "" {
		req.Collapsed = strings.Split(c, ",")
	}
	if s := q.Get("show_archived"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			response.Error(w, domain.NewValidationError([]string{"show_archived must be true or false"}))
			return
		}
		req.ShowArchived = &v
	}
	if errors := req.Validate(); len(errors) > 0 {
		response.Error(w, domain.NewValidationError(errors))
		return
	}

	h.render(w, r, req)
}

// QueryBoard handles POST /board/query, which carries the column views in
// the body.
func (h *BoardHandler) QueryBoard(w http.ResponseWriter, r *http.Request) {
	var req request.BoardQueryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	h.render(w, r, req)
}

func (h *BoardHandler) render(w http.ResponseWriter, r *http.Request, req request.BoardQueryRequest) {
	view, err := h.service(r).Board(service.BoardQuery{
		Swimlane:     request.SwimlaneValue(req.Swimlane),
		ShowArchived: req.ShowArchived,
		Collapsed:    req.Collapsed,
		Views:        req.Views,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, view)
}

// ColumnMetrics handles GET /metrics/columns/{id}.
func (h *BoardHandler) ColumnMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service(r).ColumnMetrics(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, metrics)
}

// AllColumnMetrics handles GET /metrics/columns.
func (h *BoardHandler) AllColumnMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service(r).AllColumnMetrics()
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, metrics)
}

// SwimlaneMetrics handles GET /metrics/swimlanes?swimlane=.
func (h *BoardHandler) SwimlaneMetrics(w http.ResponseWriter, r *http.Request) {
	property := request.ParseOptional(r, "swimlane")
	metrics, err := h.service(r).SwimlaneMetrics(request.SwimlaneValue(property))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, metrics)
}
