// Package config provides configuration management for PatientSeek.
//
// This package loads and validates configuration from YAML files with
// environment variable overrides, and can watch the file for changes.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("patientseek.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("patientseek.yaml")
//
// An empty path loads the defaults. LoadDotEnv populates the environment
// from .env files first, the way the hosted endpoint's credentials are
// usually distributed.
//
// # Environment Variable Overrides
//
//   - PATIENT_SEEK_API_URL overrides provider.base_url
//   - PATIENT_SEEK_API_KEY overrides provider.api_key
//   - PATIENT_SEEK_TIMEOUT overrides provider.timeout
//   - PATIENT_SEEK_MAX_RETRIES overrides provider.max_retries
//   - PATIENT_SEEK_LOG_LEVEL overrides telemetry.logging.level
//   - PATIENT_SEEK_LOG_FORMAT overrides telemetry.logging.format
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - provider.base_url: must be an absolute http(s) URL, got "localhost"
//	  - models[0].info.label: field is required
//
// # Example Configuration
//
//	provider:
//	  timeout: 60s
//	  max_retries: 1
//
//	models:
//	  - name: "whyhow-ai/PatientSeek-8B"
//	    info:
//	      label: "Whyhow - PatientSeek 8B"
//	      supports:
//	        multiturn: true
//	        system_role: true
//	        output: [text, json]
//	    structured_output: true
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    address: "127.0.0.1:9090"
package config
