package config

import (
	"time"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/registry"
	"mercator-hq/patientseek/pkg/telemetry/logging"
)

// Config is the root configuration structure for PatientSeek.
type Config struct {
	// Provider configures the OpenAI-compatible backend connection.
	Provider ProviderConfig `yaml:"provider"`

	// Models declares additional models on top of the built-in registry.
	Models []ModelConfig `yaml:"models"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProviderConfig contains configuration for the inference backend.
type ProviderConfig struct {
	// BaseURL is the base URL for the backend's API endpoint. Empty means the
	// built-in PatientSeek endpoint.
	// Example: "https://example.endpoints.huggingface.cloud/v1/"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token for the backend.
	// This should typically be loaded from PATIENT_SEEK_API_KEY.
	APIKey string `yaml:"api_key"`

	// Timeout bounds a unary request and the wait for a stream's response
	// headers. A stream body is read for as long as the backend sends it.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the maximum number of retry attempts for network
	// failures and 5xx responses.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum number of idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle connection is kept.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// ModelConfig declares a custom model.
type ModelConfig struct {
	// Name is the registry key and, unless Version is set, the wire model id.
	Name string `yaml:"name"`

	// Version overrides the wire model id.
	Version string `yaml:"version"`

	// Info advertises the model's capabilities.
	Info protocol.ModelInfo `yaml:"info"`

	// ConfigSchema is a JSON Schema generation configs are validated
	// against. Empty disables validation.
	ConfigSchema map[string]any `yaml:"config_schema"`

	// StructuredOutput adds the wire model id to the structured-output
	// allow-list.
	StructuredOutput bool `yaml:"structured_output"`
}

// Definition converts the entry into a registry reference.
func (m ModelConfig) Definition() registry.ModelReference {
	return registry.ModelReference{
		Name:         m.Name,
		Version:      m.Version,
		Info:         m.Info,
		ConfigSchema: m.ConfigSchema,
	}
}

// WireModel returns the id the backend knows the model by.
func (m ModelConfig) WireModel() string {
	if m.Version != "" {
		return m.Version
	}
	return m.Name
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "console"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets enables redaction of API keys, bearer tokens and PII.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`

	// RedactPatterns contains extra redaction patterns.
	RedactPatterns []logging.RedactPattern `yaml:"redact_patterns"`
}

// Logging converts the section into a logger configuration.
func (l LoggingConfig) Logging() logging.Config {
	return logging.Config{
		Level:          l.Level,
		Format:         l.Format,
		AddSource:      l.AddSource,
		RedactSecrets:  l.RedactSecrets == nil || *l.RedactSecrets,
		RedactPatterns: l.RedactPatterns,
	}
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Address, when set, serves the Prometheus endpoint on it.
	// Example: "127.0.0.1:9090"
	Address string `yaml:"address"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "patientseek"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets for generate call
	// duration (seconds).
	// Default: [0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}
