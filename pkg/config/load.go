package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by LoadConfigWithEnvOverrides.
const (
	EnvAPIURL     = "PATIENT_SEEK_API_URL"
	EnvAPIKey     = "PATIENT_SEEK_API_KEY"
	EnvTimeout    = "PATIENT_SEEK_TIMEOUT"
	EnvMaxRetries = "PATIENT_SEEK_MAX_RETRIES"
	EnvLogLevel   = "PATIENT_SEEK_LOG_LEVEL"
	EnvLogFormat  = "PATIENT_SEEK_LOG_FORMAT"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// An empty path yields the defaults. The configuration is not modified by
// environment variables; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// PATIENT_SEEK_* environment variable overrides. Environment variables
// always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Variables that
// are already set win. With no paths it loads ./.env; a missing default file
// is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		err := godotenv.Load()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}

	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env files %v: %w", paths, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Malformed numeric or duration values are reported rather
// than ignored.
func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv(EnvAPIURL); val != "" {
		cfg.Provider.BaseURL = val
	}
	if val := os.Getenv(EnvAPIKey); val != "" {
		cfg.Provider.APIKey = val
	}
	if val := os.Getenv(EnvTimeout); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, val, err)
		}
		cfg.Provider.Timeout = d
	}
	if val := os.Getenv(EnvMaxRetries); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxRetries, val, err)
		}
		cfg.Provider.MaxRetries = i
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv(EnvLogFormat); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	return nil
}
