package config

import (
	"fmt"
	"net/url"
	"strings"

	"mercator-hq/patientseek/pkg/telemetry/logging"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "provider.base_url").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProvider(&cfg.Provider)...)
	errs = append(errs, validateModels(cfg.Models)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   "provider.base_url",
				Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.BaseURL),
			})
		}
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "provider.timeout", Message: "must not be negative"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "provider.max_retries", Message: "must not be negative"})
	}
	if cfg.MaxIdleConns < 0 {
		errs = append(errs, FieldError{Field: "provider.max_idle_conns", Message: "must not be negative"})
	}
	if cfg.MaxIdleConnsPerHost < 0 {
		errs = append(errs, FieldError{Field: "provider.max_idle_conns_per_host", Message: "must not be negative"})
	}

	return errs
}

func validateModels(models []ModelConfig) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(models))

	for i, m := range models {
		prefix := fmt.Sprintf("models[%d]", i)

		if m.Name == "" {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: "field is required"})
		} else if seen[m.Name] {
			errs = append(errs, FieldError{Field: prefix + ".name", Message: fmt.Sprintf("duplicate model %q", m.Name)})
		}
		seen[m.Name] = true

		if m.Info.Label == "" {
			errs = append(errs, FieldError{Field: prefix + ".info.label", Message: "field is required"})
		}
		for _, format := range m.Info.Supports.Output {
			if format != "text" && format != "json" {
				errs = append(errs, FieldError{
					Field:   prefix + ".info.supports.output",
					Message: fmt.Sprintf("unknown output format %q", format),
				})
			}
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: err.Error()})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be one of json, text, console, got %q", cfg.Logging.Format),
		})
	}
	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "field is required",
			})
		}
	}

	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}
	for i := 1; i < len(cfg.Metrics.RequestDurationBuckets); i++ {
		if cfg.Metrics.RequestDurationBuckets[i] <= cfg.Metrics.RequestDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.request_duration_buckets",
				Message: "must be strictly increasing",
			})
			break
		}
	}

	return errs
}
