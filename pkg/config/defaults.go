package config

import "time"

// Default values for configuration fields.
const (
	// Provider defaults
	DefaultProviderTimeout             = 120 * time.Second
	DefaultProviderMaxRetries          = 2
	DefaultProviderMaxIdleConns        = 100
	DefaultProviderMaxIdleConnsPerHost = 10
	DefaultProviderIdleConnTimeout     = 90 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"

	// Metrics defaults
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "patientseek"
)

// DefaultRequestDurationBuckets are the generate call duration buckets.
var DefaultRequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}

// NewDefaultConfig returns a configuration holding only default values.
// Files are decoded on top of it, so fields whose zero value is meaningful
// (max_retries: 0, metrics.enabled: false) are only defaulted here.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Provider: ProviderConfig{MaxRetries: DefaultProviderMaxRetries},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Fields the
// caller set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyProviderDefaults(&cfg.Provider)
	applyLoggingDefaults(&cfg.Telemetry.Logging)
	applyMetricsDefaults(&cfg.Telemetry.Metrics)
}

func applyProviderDefaults(cfg *ProviderConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = DefaultProviderMaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = DefaultProviderMaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = DefaultProviderIdleConnTimeout
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.Format == "" {
		cfg.Format = DefaultLogFormat
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultMetricsPath
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}
}
