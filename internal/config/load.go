package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load builds the effective configuration from three layers, lowest
// precedence first: built-in defaults, an optional YAML file, and
// environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays secrets and deploy-specific knobs from the environment.
// Only leaf values that routinely differ between environments are mapped.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.JWTSecret, "DEARDIARY_JWT_SECRET")
	setString(&cfg.Database.PostgresURL, "DEARDIARY_POSTGRES_URL")
	setString(&cfg.Database.Backend, "DEARDIARY_DB_BACKEND")
	setString(&cfg.Embedding.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.APIKey, "GEMINI_API_KEY")
	setString(&cfg.LLM.Provider, "DEARDIARY_LLM_PROVIDER")
	setString(&cfg.LLM.Model, "DEARDIARY_LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "DEARDIARY_LLM_BASE_URL")
	setString(&cfg.TTS.APIKey, "ELEVENLABS_API_KEY")
	setString(&cfg.Notify.AccountSID, "TWILIO_ACCOUNT_SID")
	setString(&cfg.Notify.AuthToken, "TWILIO_AUTH_TOKEN")
	setString(&cfg.Notify.FromNumber, "TWILIO_FROM_NUMBER")
	setString(&cfg.Log.Level, "DEARDIARY_LOG_LEVEL")
	setInt(&cfg.Server.Port, "DEARDIARY_PORT")
	setDuration(&cfg.Analysis.RequestTimeout, "DEARDIARY_REQUEST_TIMEOUT")

	if cfg.TTS.APIKey != "" {
		cfg.TTS.Enabled = true
	}
	if cfg.Notify.AccountSID != "" && cfg.Notify.AuthToken != "" {
		cfg.Notify.Enabled = true
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
