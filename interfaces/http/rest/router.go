// Package rest exposes the workspace over JSON/HTTP.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"careerflow/application/commands/bus"
	"careerflow/application/services"
	"careerflow/infrastructure/config"
	"careerflow/interfaces/http/rest/handlers"
	"careerflow/interfaces/http/rest/middleware"
	"careerflow/pkg/auth"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	workspace  *services.WorkspaceService
	reloader   handlers.Reloader
	metrics    *observability.Collector
	validator  *auth.JWTValidator
	errors     *pkgerrors.ErrorHandler
	cfg        *config.Config
	logger     *zap.Logger
}

// NewRouter creates a new router instance. A nil metrics collector disables
// /metrics and a nil validator disables authentication.
func NewRouter(
	commandBus *bus.CommandBus,
	ws *services.WorkspaceService,
	reloader handlers.Reloader,
	metrics *observability.Collector,
	validator *auth.JWTValidator,
	errs *pkgerrors.ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	return &Router{
		commandBus: commandBus,
		workspace:  ws,
		reloader:   reloader,
		metrics:    metrics,
		validator:  validator,
		errors:     errs,
		cfg:        cfg,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errors.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	workspaceHandler := handlers.NewWorkspaceHandler(rt.workspace, rt.reloader, rt.errors, rt.logger)
	nodeHandler := handlers.NewNodeHandler(rt.commandBus, rt.workspace, rt.errors, rt.logger)
	selectionHandler := handlers.NewSelectionHandler(rt.commandBus, rt.workspace, rt.errors, rt.logger)
	cvHandler := handlers.NewCVHandler(rt.commandBus, rt.workspace, rt.errors, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		if rt.validator != nil {
			r.Use(middleware.Authenticate(rt.validator, rt.errors, rt.logger))
		}

		r.Get("/workspace", workspaceHandler.GetView)
		r.Get("/workspace/state", workspaceHandler.GetState)
		r.Post("/sync/reload", workspaceHandler.Reload)

		r.Put("/nodes/{nodeID}", nodeHandler.Rename)
		r.Delete("/nodes/{nodeID}", nodeHandler.Delete)
		r.Post("/nodes/{nodeID}/children", nodeHandler.CreateChild)
		r.Post("/roles/{nodeID}/tailored", nodeHandler.GenerateTailored)

		r.Route("/selection", func(r chi.Router) {
			r.Post("/click", selectionHandler.Click)
			r.Post("/toggle", selectionHandler.Toggle)
			r.Post("/select-all", selectionHandler.SelectAll)
			r.Post("/clear", selectionHandler.Clear)
			r.Post("/delete", selectionHandler.DeleteSelected)
		})

		r.Post("/cv", cvHandler.Upload)
		r.Put("/cv/text", cvHandler.UpdateText)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck reports ready while the workspace holds a consistent tree
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if err := rt.workspace.Snapshot().Validate(); err != nil {
		rt.logger.Error("Workspace failed validation", zap.Error(err))
		rt.errors.HandleStatus(w, req, http.StatusServiceUnavailable, "workspace is inconsistent")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if rt.reloader.LocalOnly() {
		_, _ = w.Write([]byte(`{"status":"ready","mode":"local"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"ready","mode":"synced"}`))
}
