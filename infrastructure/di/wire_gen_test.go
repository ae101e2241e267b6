package di

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"careerflow/application/commands"
	domainconfig "careerflow/domain/config"
	"careerflow/infrastructure/config"
	"careerflow/infrastructure/persistence"
	"careerflow/tests/fixtures"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerAddress:   ":0",
		Environment:     "test",
		ShutdownTimeout: time.Second,
		Backend: config.BackendConfig{
			Timeout:       time.Second,
			TailorTimeout: time.Second,
			Breaker:       config.DefaultBreakerConfig(),
		},
		StateFile:     filepath.Join(t.TempDir(), "workspace.json"),
		LogLevel:      "error",
		ServiceName:   "careerflow_test",
		EnableMetrics: true,
		Domain:        domainconfig.DefaultDomainConfig(),
	}
}

func TestInitializeContainerLocalOnly(t *testing.T) {
	cfg := testConfig(t)

	c, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)

	assert.Nil(t, c.Backend)
	assert.True(t, c.Sync.LocalOnly())
	assert.NotNil(t, c.Router.Setup())

	_, err = c.CommandBus.Send(context.Background(), commands.CreateCompanyCommand{Name: "Acme"})
	require.NoError(t, err)
	assert.Len(t, c.Workspace.Snapshot().Tree.Nodes(), 2)

	// The command was saved to the state file
	saved, ok, err := c.StateStore.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, saved.Tree.Nodes(), 2)
}

func TestInitializeContainerRestoresState(t *testing.T) {
	cfg := testConfig(t)
	saved := fixtures.NewWorkspaceBuilder().WithCompany("Acme", 10).WithCompany("Globex", 11).MustBuild()
	require.NoError(t, persistence.NewStateStore(cfg.StateFile, cfg.Domain, zap.NewNop()).Save(saved))

	c, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, c.Workspace.Snapshot().Tree.Nodes(), 3)
}

func TestInitializeContainerWithBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.BaseURL = "http://127.0.0.1:1"
	cfg.JWTSecret = "secret"

	c, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, c.Backend)
	assert.False(t, c.Sync.LocalOnly())
}

func TestInitializeContainerRejectsBadLogLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LogLevel = "loud"

	_, err := InitializeContainer(context.Background(), cfg)
	assert.Error(t, err)
}
