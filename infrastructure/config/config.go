package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "careerflow/domain/config"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address"`
	Environment     string        `yaml:"environment"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`

	// Backend collaborator. An empty URL runs the workspace local-only.
	Backend BackendConfig `yaml:"backend"`

	// Workspace persistence between restarts; empty disables it
	StateFile string `yaml:"state_file"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Authentication
	JWTSecret string `yaml:"-"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Tracing
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`

	// Business rules
	Domain *domainconfig.DomainConfig `yaml:"domain"`

	// Sources the configuration was assembled from
	LoadedFrom []string `yaml:"-"`
}

// BackendConfig configures the REST client and its circuit breaker
type BackendConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	TailorTimeout time.Duration `yaml:"tailor_timeout"` // model calls take much longer than CRUD
	Breaker       BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds the circuit breaker thresholds
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// DefaultBreakerConfig trips after 80% of at least five requests fail
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	env := getEnv("ENVIRONMENT", "development")
	cfg := &Config{
		ServerAddress:   ":8080",
		Environment:     env,
		ShutdownTimeout: 10 * time.Second,
		Backend: BackendConfig{
			Timeout:       15 * time.Second,
			TailorTimeout: 120 * time.Second,
			Breaker:       DefaultBreakerConfig(),
		},
		LogLevel:    "info",
		JWTIssuer:   "careerflow",
		ServiceName: "careerflow",
		EnableCORS:  true,
		CORSOrigins: []string{"*"},
		Domain:      domainconfig.LoadDomainConfig(env),
		LoadedFrom:  []string{"defaults"},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if c.Domain == nil {
		c.Domain = domainconfig.LoadDomainConfig(c.Environment)
	}
	c.LoadedFrom = append(c.LoadedFrom, path)
	return nil
}

// applyEnv overlays environment variables; unset variables keep the value
// from the defaults or the file.
func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.IsLambda = getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.Backend.BaseURL = strings.TrimRight(getEnv("BACKEND_URL", c.Backend.BaseURL), "/")
	c.Backend.Timeout = getEnvDuration("BACKEND_TIMEOUT", c.Backend.Timeout)
	c.Backend.TailorTimeout = getEnvDuration("BACKEND_TAILOR_TIMEOUT", c.Backend.TailorTimeout)
	c.Backend.Breaker.FailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.Backend.Breaker.FailureThreshold)
	c.Backend.Breaker.Timeout = getEnvDuration("BREAKER_TIMEOUT", c.Backend.Breaker.Timeout)

	c.StateFile = getEnv("STATE_FILE", c.StateFile)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)

	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.ServiceName = getEnv("OTEL_SERVICE_NAME", c.ServiceName)

	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	c.LoadedFrom = append(c.LoadedFrom, "environment")
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.Backend.BaseURL)
		}
	}
	if c.Backend.Timeout <= 0 || c.Backend.TailorTimeout <= 0 {
		return fmt.Errorf("backend timeouts must be positive")
	}
	if t := c.Backend.Breaker.FailureThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("breaker failure threshold must be in (0, 1], got %v", t)
	}
	if c.EnableTracing && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when tracing is enabled")
	}
	if c.Domain == nil {
		return fmt.Errorf("domain configuration is missing")
	}
	if err := c.Domain.Validate(); err != nil {
		return fmt.Errorf("domain configuration: %w", err)
	}
	return nil
}

// LocalOnly reports whether no backend is configured
func (c *Config) LocalOnly() bool {
	return c.Backend.BaseURL == ""
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
