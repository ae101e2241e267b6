package di

import (
	"go.uber.org/zap"

	"careerflow/application/commands/bus"
	"careerflow/application/ports"
	"careerflow/application/services"
	"careerflow/application/sync"
	"careerflow/infrastructure/config"
	"careerflow/infrastructure/persistence"
	"careerflow/interfaces/http/rest"
	"careerflow/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Collector
	Backend    ports.Backend
	StateStore *persistence.StateStore
	Workspace  *services.WorkspaceService
	Sync       *sync.Adapter
	CommandBus *bus.CommandBus
	Router     *rest.Router
}
