package config

import (
	"fmt"
	"time"

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

// Config holds the configuration for the vault service.
// Environment variables are parsed from the VAULT_SERVICE_ prefix.
type Config struct {
	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage backend: sqlite for local runs, postgres otherwise
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./storage/vaults.db"`

	// Blob storage for uploaded archives
	StorageRoot  string `envconfig:"STORAGE_ROOT" default:"./storage/vaults"`
	MaxVaultSize int64  `envconfig:"MAX_VAULT_SIZE" default:"104857600"` // 100MB

	// Vector index / embeddings
	VectorStore   string  `envconfig:"VECTOR_STORE" default:"memory"`
	WeaviateURL   string  `envconfig:"WEAVIATE_URL" default:"localhost:8081"`
	EmbedProvider string  `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel    string  `envconfig:"EMBED_MODEL" default:"mxbai-embed-large"`
	SearchAlpha   float32 `envconfig:"SEARCH_ALPHA" default:"0.6"`

	// Optional text-generation provider (capability plug-in, unused by the core)
	LLMProvider string `envconfig:"LLM_PROVIDER" default:"none"`
	LLMModel    string `envconfig:"LLM_MODEL" default:"llama3"`
	OllamaURL   string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// Optional secondary archive mirror; empty disables it
	BackupDir string `envconfig:"BACKUP_DIR" default:""`

	// Queued pipeline worker
	WorkerBatchSize int           `envconfig:"WORKER_BATCH_SIZE" default:"10"`
	WorkerInterval  time.Duration `envconfig:"WORKER_INTERVAL" default:"2s"`
	MaxAttempts     int           `envconfig:"MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"RETRY_BASE_DELAY" default:"2s"`
	RetryMaxDelay   time.Duration `envconfig:"RETRY_MAX_DELAY" default:"5m"`
	StepTimeout     time.Duration `envconfig:"STEP_TIMEOUT" default:"1h"`
}

// ResolveDefaults validates driver selections and cross-field requirements.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	switch c.VectorStore {
	case "memory", "weaviate", "none":
	default:
		return fmt.Errorf("unsupported VECTOR_STORE: %s", c.VectorStore)
	}

	switch c.LLMProvider {
	case "none", "ollama":
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %s", c.LLMProvider)
	}

	if c.MaxVaultSize <= 0 {
		return fmt.Errorf("MAX_VAULT_SIZE must be positive")
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Variables are prefixed with VAULT_SERVICE_, e.g. VAULT_SERVICE_HTTP_PORT.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("VAULT_SERVICE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Str("db_driver", cfg.DBDriver).
		Str("storage_root", cfg.StorageRoot).
		Int64("max_vault_size", cfg.MaxVaultSize).
		Str("vector_store", cfg.VectorStore).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	cfg := &Config{
		Environment:     EnvTesting,
		HTTPPort:        8080,
		DBDriver:        "sqlite",
		SQLitePath:      ":memory:",
		StorageRoot:     "./storage/vaults",
		MaxVaultSize:    104857600,
		VectorStore:     "memory",
		WeaviateURL:     "localhost:8081",
		EmbedProvider:   "ollama",
		EmbedModel:      "mxbai-embed-large",
		SearchAlpha:     0.6,
		LLMProvider:     "none",
		LLMModel:        "llama3",
		WorkerBatchSize: 10,
		WorkerInterval:  2 * time.Second,
		MaxAttempts:     3,
		RetryBaseDelay:  time.Second,
		RetryMaxDelay:   time.Minute,
		StepTimeout:     time.Hour,
	}
	return cfg
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
