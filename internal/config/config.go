package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Config holds the configuration for the playdates service.
// Environment variables are parsed from the PLAYDATES_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Store driver: sqlite | postgres | mongo
	StoreDriver string `envconfig:"STORE_DRIVER" default:"sqlite"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Mongo Configuration
	MongoURI      string `envconfig:"MONGO_URI" default:""`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"playdates"`

	// SQLite Configuration (local/dev)
	SQLitePath string `envconfig:"SQLITE_PATH" default:"playdates.db"`

	// Push notification gateway. Empty URL disables push entirely.
	PushGatewayURL string `envconfig:"PUSH_GATEWAY_URL" default:""`
	PushGatewayKey string `envconfig:"PUSH_GATEWAY_KEY" default:""`

	// Auth: HMAC secret for bearer tokens. Empty enables the dev authorizer,
	// which is rejected outside development.
	JWTSecret string `envconfig:"JWT_SECRET" default:""`

	// Health checking cadence
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`

	// Live update stream buffer per subscriber
	EventBufferSize int `envconfig:"EVENT_BUFFER_SIZE" default:"16"`
}

// ResolveDefaults validates the store driver and cross-field requirements.
func (c *Config) ResolveDefaults() error {
	switch c.StoreDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("PLAYDATES_SQLITE_PATH required for sqlite driver")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("PLAYDATES_POSTGRES_DSN required for postgres driver")
		}
	case "mongo":
		if c.MongoURI == "" {
			return fmt.Errorf("PLAYDATES_MONGO_URI required for mongo driver")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER: %s", c.StoreDriver)
	}
	if c.IsProduction() && c.JWTSecret == "" {
		return fmt.Errorf("PLAYDATES_JWT_SECRET required in production")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables are prefixed with PLAYDATES_
// Example: PLAYDATES_HTTP_PORT, PLAYDATES_STORE_DRIVER
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PLAYDATES", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("store_driver", cfg.StoreDriver).
		Int("port", cfg.HTTPPort).
		Bool("push_enabled", cfg.PushGatewayURL != "").
		Bool("jwt_secret_present", cfg.JWTSecret != "").
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		Environment:               EnvTesting,
		HTTPPort:                  8080,
		StoreDriver:               "sqlite",
		SQLitePath:                ":memory:",
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		EventBufferSize:           16,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
