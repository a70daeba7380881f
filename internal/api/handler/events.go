package handler

import (
	"net/http"

	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/events"
)

// EventsHandler upgrades clients to the live event stream of a project.
type EventsHandler struct {
	hub *events.Hub
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /events.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r, middleware.GetProject(r.Context()))
}
