package config

import (
	"fmt"
	"time"
)

// Config is the full service configuration, loaded once at startup and
// passed down by dependency injection. Business logic never reads ambient
// environment state directly.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Database  DatabaseConfig  `yaml:"database"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	TTS       TTSConfig       `yaml:"tts"`
	Notify    NotifyConfig    `yaml:"notify"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	EnableCORS   bool          `yaml:"enable_cors"`
	Debug        bool          `yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// JWTSecret verifies bearer tokens (HS256). When empty, auth falls back
	// to the X-User-ID header; only suitable for local development.
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus/OTel metrics pipeline.
type MetricsConfig struct {
	Enabled        bool `yaml:"enabled"`
	PrometheusPort int  `yaml:"prometheus_port"`
}

// DatabaseConfig selects the entry/preferences persistence backend.
type DatabaseConfig struct {
	// Backend is "memory" or "postgres".
	Backend     string `yaml:"backend"`
	PostgresURL string `yaml:"postgres_url"`
}

// VectorConfig configures the similarity index.
type VectorConfig struct {
	PersistPath string `yaml:"persist_path"`
	Collection  string `yaml:"collection"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	// Provider is "gemini" or "ollama"; chosen once per deployment.
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AnalysisConfig tunes the orchestrator pipeline.
type AnalysisConfig struct {
	// RequestTimeout bounds one whole submitEntry pipeline run.
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// ContextLimit is the number of past entries injected into the prompt.
	ContextLimit int `yaml:"context_limit"`
	// CandidatePool is how many similarity candidates are explored before
	// the top ContextLimit are kept.
	CandidatePool int `yaml:"candidate_pool"`
	// ContextTokenBudget caps the token footprint of retrieved context.
	ContextTokenBudget int `yaml:"context_token_budget"`
	// AlertConfidence is the tactic confidence at or above which the
	// emergency notifier fires.
	AlertConfidence float64 `yaml:"alert_confidence"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	// Voices maps persona name to an ElevenLabs voice ID.
	Voices map[string]string `yaml:"voices"`
}

// NotifyConfig configures the Twilio emergency SMS sender.
type NotifyConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	FromNumber string `yaml:"from_number"`
	BaseURL    string `yaml:"base_url"`
}

// Default returns the baseline configuration before file/env layering.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			EnableCORS:   true,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:        true,
			PrometheusPort: 9090,
		},
		Database: DatabaseConfig{
			Backend: "memory",
		},
		Vector: VectorConfig{
			Collection: "journal",
		},
		Embedding: EmbeddingConfig{
			Model:      "text-embedding-004",
			Dimensions: 768,
			CacheSize:  10000,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  60 * time.Second,
		},
		Analysis: AnalysisConfig{
			RequestTimeout:     30 * time.Second,
			ContextLimit:       5,
			CandidatePool:      50,
			ContextTokenBudget: 2000,
			AlertConfidence:    0.85,
		},
		TTS: TTSConfig{
			BaseURL: "https://api.elevenlabs.io",
		},
		Notify: NotifyConfig{
			BaseURL: "https://api.twilio.com",
		},
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Database.Backend {
	case "memory":
	case "postgres":
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("postgres backend requires database.postgres_url")
		}
	default:
		return fmt.Errorf("unknown database backend: %q", c.Database.Backend)
	}
	switch c.LLM.Provider {
	case "gemini", "ollama":
	default:
		return fmt.Errorf("unknown llm provider: %q", c.LLM.Provider)
	}
	if c.Analysis.ContextLimit <= 0 {
		return fmt.Errorf("analysis.context_limit must be positive")
	}
	if c.Analysis.CandidatePool < c.Analysis.ContextLimit {
		return fmt.Errorf("analysis.candidate_pool must be >= context_limit")
	}
	return nil
}
