package cli

import (
	"errors"
	"fmt"

	"mercator-hq/patientseek/pkg/providers"
)

// ConfigError reports configuration that could not be loaded before a
// command ran. Source is the flag, file or section it came from.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("cannot load configuration: %v", e.Err)
	}
	return fmt.Sprintf("cannot load configuration from %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError is the error a patientseek subcommand exits with. Known
// backend failures carry a hint naming the setting to change.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("patientseek %s: %v", e.Command, e.Err)
	if hint := Hint(e.Err); hint != "" {
		msg += " (" + hint + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Hint returns a remedy for err, or "" when there is none.
func Hint(err error) string {
	var (
		authErr    *providers.AuthError
		modelErr   *providers.UnsupportedModelError
		timeoutErr *providers.TimeoutError
		rateErr    *providers.RateLimitError
	)
	switch {
	case errors.As(err, &authErr):
		return "check PATIENT_SEEK_API_KEY"
	case errors.As(err, &modelErr):
		return "run 'patientseek models' for the available names"
	case errors.As(err, &timeoutErr):
		return "raise provider.timeout or PATIENT_SEEK_TIMEOUT"
	case errors.As(err, &rateErr):
		return "retry later"
	}
	return ""
}

// NewConfigError creates a new ConfigError.
func NewConfigError(source string, err error) *ConfigError {
	return &ConfigError{
		Source: source,
		Err:    err,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
