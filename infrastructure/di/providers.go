package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
	"go.uber.org/zap"

	"careerflow/application/commands/bus"
	"careerflow/application/ports"
	"careerflow/application/services"
	"careerflow/application/sync"
	"careerflow/infrastructure/backend"
	"careerflow/infrastructure/config"
	"careerflow/infrastructure/persistence"
	"careerflow/interfaces/http/rest"
	"careerflow/pkg/auth"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/observability"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}

	return zcfg.Build()
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.ServiceName)
}

// ProvideHTTPClient creates the client used for backend calls. On Lambda it
// is instrumented so calls show up as X-Ray subsegments.
func ProvideHTTPClient(cfg *config.Config) *http.Client {
	client := &http.Client{}
	if cfg.IsLambda {
		return xray.Client(client)
	}
	return client
}

// ProvideBackend creates the backend client, or nil in local-only mode
func ProvideBackend(cfg *config.Config, httpClient *http.Client, metrics *observability.Collector, logger *zap.Logger) ports.Backend {
	if cfg.LocalOnly() {
		logger.Info("No backend configured, running in local-only mode")
		return nil
	}
	return backend.NewClient(cfg.Backend, httpClient, metrics, logger)
}

// ProvideStateStore creates the state file store
func ProvideStateStore(cfg *config.Config, logger *zap.Logger) *persistence.StateStore {
	return persistence.NewStateStore(cfg.StateFile, cfg.Domain, logger)
}

// ProvideWorkspace creates the workspace and restores the saved state
func ProvideWorkspace(
	ctx context.Context,
	cfg *config.Config,
	store *persistence.StateStore,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*services.WorkspaceService, error) {
	ws := services.NewWorkspaceService(cfg.Domain, metrics, logger)

	state, ok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("restore workspace: %w", err)
	}
	if ok {
		if err := ws.Replace(state); err != nil {
			return nil, fmt.Errorf("restore workspace: %w", err)
		}
		logger.Info("Workspace restored",
			zap.String("path", store.Path()),
			zap.Int("nodes", len(state.Tree.Nodes())),
		)
	}
	return ws, nil
}

// ProvideInFlight creates the guard shared by the bus and the sync adapter
func ProvideInFlight() *bus.InFlight {
	return bus.NewInFlight()
}

// ProvideSyncAdapter creates the adapter that mirrors the tree to the backend
func ProvideSyncAdapter(ws *services.WorkspaceService, backend ports.Backend, guard *bus.InFlight, logger *zap.Logger) *sync.Adapter {
	return sync.NewAdapter(ws, backend, guard, logger)
}

// ProvideCommandBus creates the command bus with all handlers registered
func ProvideCommandBus(
	adapter *sync.Adapter,
	guard *bus.InFlight,
	ws *services.WorkspaceService,
	store *persistence.StateStore,
	metrics *observability.Collector,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.MetricsMiddleware(metrics),
		bus.InFlightMiddleware(guard),
		bus.AfterCommitMiddleware(autosave(ws, store, logger)),
	)
	if err := adapter.Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// autosave writes the workspace to the state file after every mutation
func autosave(ws *services.WorkspaceService, store *persistence.StateStore, logger *zap.Logger) func(context.Context, bus.Command) {
	return func(_ context.Context, cmd bus.Command) {
		if !store.Enabled() {
			return
		}
		if err := store.Save(ws.Snapshot()); err != nil {
			logger.Error("Failed to save workspace",
				zap.String("command", bus.CommandName(cmd)),
				zap.Error(err),
			)
		}
	}
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideJWTValidator creates the token validator. Without a secret the API
// is left unauthenticated.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, API authentication disabled")
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	commandBus *bus.CommandBus,
	ws *services.WorkspaceService,
	adapter *sync.Adapter,
	metrics *observability.Collector,
	validator *auth.JWTValidator,
	errs *pkgerrors.ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	if !cfg.EnableMetrics {
		metrics = nil
	}
	return rest.NewRouter(commandBus, ws, adapter, metrics, validator, errs, cfg, logger)
}
