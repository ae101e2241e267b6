package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "CONFIG_FILE", "SERVER_ADDRESS", "BACKEND_URL", "BACKEND_TIMEOUT",
		"JWT_SECRET", "ENABLE_TRACING", "OTEL_EXPORTER_OTLP_ENDPOINT", "CORS_ORIGINS",
		"IS_LAMBDA", "AWS_LAMBDA_FUNCTION_NAME", "STATE_FILE", "BREAKER_FAILURE_THRESHOLD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.True(t, cfg.IsDevelopment())
	assert.True(t, cfg.LocalOnly())
	assert.False(t, cfg.IsLambda)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 0.8, cfg.Backend.Breaker.FailureThreshold)
	assert.Equal(t, 100000, cfg.Domain.MaxNodesPerTree)
	assert.Equal(t, []string{"defaults", "environment"}, cfg.LoadedFrom)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("BACKEND_URL", "http://localhost:8000/api/")
	t.Setenv("BACKEND_TIMEOUT", "5")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "careerflow-api")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddress)
	assert.Equal(t, "http://localhost:8000/api", cfg.Backend.BaseURL)
	assert.False(t, cfg.LocalOnly())
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsLambda)
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "careerflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_address: ":7070"
backend:
  base_url: http://backend.test
  timeout: 3s
  breaker:
    failure_threshold: 0.5
domain:
  max_nodes_per_tree: 50
  layout:
    company:
      x_offset: 400
      y_spacing: 90
      base_y: -100
      relative_to_parent: true
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_ADDRESS", ":6060")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.ServerAddress, "environment wins over the file")
	assert.Equal(t, "http://backend.test", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 0.5, cfg.Backend.Breaker.FailureThreshold)
	assert.Equal(t, 120*time.Second, cfg.Backend.TailorTimeout, "unset keys keep defaults")
	assert.Equal(t, 50, cfg.Domain.MaxNodesPerTree)
	assert.Equal(t, 90.0, cfg.Domain.Layout["company"].YSpacing)
	assert.Equal(t, 80.0, cfg.Domain.Layout["base"].YSpacing)
	assert.Contains(t, cfg.LoadedFrom, path)
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"production needs jwt", func(c *Config) { c.Environment = "production" }, "JWT_SECRET"},
		{"relative backend url", func(c *Config) { c.Backend.BaseURL = "backend/api" }, "absolute URL"},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "timeouts"},
		{"threshold above one", func(c *Config) { c.Backend.Breaker.FailureThreshold = 1.5 }, "threshold"},
		{"tracing without endpoint", func(c *Config) { c.EnableTracing = true }, "OTEL_EXPORTER_OTLP_ENDPOINT"},
		{"bad domain", func(c *Config) { c.Domain.MaxNodesPerTree = 0 }, "domain configuration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := LoadConfig()
			require.NoError(t, err)
			tt.mutate(cfg)

			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
