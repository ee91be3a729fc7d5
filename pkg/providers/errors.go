package providers

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ProviderError represents a general provider error.
// It includes the provider name, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the name of the provider that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	Provider string
	Message  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the provider.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError represents a decode failure: a malformed backend response, or
// content that had to be JSON and was not.
type ParseError struct {
	// Provider is the name of the provider that returned the malformed payload
	Provider string

	// RawResponse is the raw payload that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request validation failure detected before
// anything is sent to the provider.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// ConfigError represents an invalid provider or model configuration.
type ConfigError struct {
	Provider string
	Field    string
	Message  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// UnsupportedModelError is returned when a model name is not in the registry.
// It is raised before any transport call.
type UnsupportedModelError struct {
	Model string
}

// Error implements the error interface.
func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model: %s", e.Model)
}

// UnsupportedRoleError is returned when a message role has no wire mapping.
type UnsupportedRoleError struct {
	Role string
}

// Error implements the error interface.
func (e *UnsupportedRoleError) Error() string {
	return fmt.Sprintf("role %q doesn't map to an OpenAI role", e.Role)
}

// UnsupportedResponseFormatError is returned when a structured-output format
// is requested from a model that does not advertise it.
type UnsupportedResponseFormatError struct {
	Format string
	Model  string
}

// Error implements the error interface.
func (e *UnsupportedResponseFormatError) Error() string {
	return fmt.Sprintf("%s format is not supported for model %q", e.Format, e.Model)
}

// MalformedToolCallError is returned when a wire tool call lacks its
// function payload.
type MalformedToolCallError struct {
	// Index is the position of the tool call within its message
	Index int

	// ID is the tool call id, if the backend sent one
	ID string
}

// Error implements the error interface.
func (e *MalformedToolCallError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed tool call %d (id %q): function is missing", e.Index, e.ID)
	}
	return fmt.Sprintf("malformed tool call %d: function is missing", e.Index)
}

// StreamChunkProcessingError reports a single stream chunk that could not be
// decoded or applied. It is not fatal: the stream continues with the next
// chunk.
type StreamChunkProcessingError struct {
	// Raw is the raw chunk payload, when available
	Raw string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamChunkProcessingError) Error() string {
	return fmt.Sprintf("stream chunk processing failed: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamChunkProcessingError) Unwrap() error {
	return e.Cause
}

// StreamTransportError reports an irrecoverable failure of the chunk
// iterator itself.
type StreamTransportError struct {
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *StreamTransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamTransportError) Unwrap() error {
	return e.Cause
}

// ErrorType classifies an error into a short label for metrics.
func ErrorType(err error) string {
	var (
		authErr      *AuthError
		rateErr      *RateLimitError
		timeoutErr   *TimeoutError
		parseErr     *ParseError
		validErr     *ValidationError
		configErr    *ConfigError
		modelErr     *UnsupportedModelError
		roleErr      *UnsupportedRoleError
		formatErr    *UnsupportedResponseFormatError
		toolErr      *MalformedToolCallError
		chunkErr     *StreamChunkProcessingError
		transportErr *StreamTransportError
		providerErr  *ProviderError
	)

	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &rateErr):
		return "rate_limit"
	case errors.As(err, &modelErr):
		return "unsupported_model"
	case errors.As(err, &roleErr):
		return "unsupported_role"
	case errors.As(err, &formatErr):
		return "unsupported_format"
	case errors.As(err, &validErr):
		return "validation"
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &chunkErr):
		return "stream_chunk"
	case errors.As(err, &transportErr):
		return "stream_transport"
	case errors.As(err, &toolErr):
		return "malformed_tool_call"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &providerErr):
		if providerErr.StatusCode >= 500 {
			return "server_error"
		}
		if providerErr.StatusCode >= 400 {
			return "client_error"
		}
		return "network"
	default:
		return "unknown"
	}
}
