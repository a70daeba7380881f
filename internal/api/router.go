package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/airyra/flowboard/internal/api/handler"
	"github.com/airyra/flowboard/internal/api/middleware"
	"github.com/airyra/flowboard/internal/events"
	"github.com/airyra/flowboard/internal/service"
	"github.com/airyra/flowboard/internal/store"
)

// Options configures the router.
type Options struct {
	// Service is the configuration shared by every request's services.
	Service service.Config
	// Hub serves the /events stream and receives published events. When
	// nil the stream is not mounted and events are dropped.
	Hub *events.Hub
	// AllowedOrigins lists the browser origins allowed by CORS. Empty
	// disables cross-origin requests.
	AllowedOrigins []string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(manager *store.Manager, opts Options) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware chain
	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(corsHandler(opts.AllowedOrigins))
	r.Use(middleware.Actor)

	cfg := opts.Service
	if opts.Hub != nil {
		cfg.Publisher = opts.Hub
	}

	// Initialize handlers
	systemHandler := handler.NewSystemHandler(manager)
	taskHandler := handler.NewTaskHandler(cfg)
	transitionHandler := handler.NewTransitionHandler(cfg)
	workflowHandler := handler.NewWorkflowHandler(cfg)
	boardHandler := handler.NewBoardHandler(cfg)

	// System routes (no project context needed)
	r.Get("/v1/health", systemHandler.Health)
	r.Get("/v1/projects", systemHandler.ListProjects)

	// Project-scoped routes
	r.Route("/v1/projects/{project}", func(r chi.Router) {
		// Apply project context middleware
		r.Use(middleware.ProjectContext(manager))

		// Task CRUD
		r.Get("/tasks", taskHandler.ListTasks)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Patch("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Get("/tasks/{id}/history", taskHandler.GetHistory)

		// Status transitions
		r.Post("/tasks/move", transitionHandler.MoveTasks)
		r.Post("/tasks/{id}/move", transitionHandler.MoveTask)
		r.Post("/tasks/{id}/revert", transitionHandler.RevertTask)

		// Workflow
		r.Get("/statuses", workflowHandler.ListStatuses)
		r.Post("/statuses", workflowHandler.CreateStatus)
		r.Post("/statuses/reorder", workflowHandler.ReorderStatuses)
		r.Get("/statuses/templates", workflowHandler.ListTemplates)
		r.Post("/statuses/template", workflowHandler.ApplyTemplate)
		r.Patch("/statuses/{id}", workflowHandler.UpdateStatus)
		r.Delete("/statuses/{id}", workflowHandler.DeleteStatus)
		r.Post("/statuses/{id}/archive", workflowHandler.ArchiveStatus)
		r.Post("/statuses/{id}/unarchive", workflowHandler.UnarchiveStatus)

		r.Get("/groups", workflowHandler.ListGroups)
		r.Post("/groups", workflowHandler.CreateGroup)
		r.Patch("/groups/{id}", workflowHandler.UpdateGroup)
		r.Delete("/groups/{id}", workflowHandler.DeleteGroup)

		r.Get("/settings", workflowHandler.GetSettings)
		r.Put("/settings", workflowHandler.UpdateSettings)

		// Board and metrics
		r.Get("/board", boardHandler.GetBoard)
		r.Post("/board/query", boardHandler.QueryBoard)
		r.Get("/metrics/columns", boardHandler.AllColumnMetrics)
		r.Get("/metrics/columns/{id}", boardHandler.ColumnMetrics)
		r.Get("/metrics/swimlanes", boardHandler.SwimlaneMetrics)

		// Live updates
		if opts.Hub != nil {
			r.Get("/events", handler.NewEventsHandler(opts.Hub).Stream)
		}
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", middleware.ActorHeader},
		MaxAge:         300,
	}).Handler
}
