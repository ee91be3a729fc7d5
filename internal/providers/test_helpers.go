package providers

import (
	"errors"
	"testing"
	"time"

	"mercator-hq/patientseek/pkg/providers"
)

// TestTransportConfig returns a transport configuration for a mock backend at
// baseURL: one attempt, millisecond backoff and a short timeout.
func TestTransportConfig(name, baseURL string) providers.TransportConfig {
	return providers.TransportConfig{
		Name:           name,
		BaseURL:        baseURL,
		APIKey:         "test-key",
		Timeout:        5 * time.Second,
		RetryBaseDelay: time.Millisecond,
	}
}

// AssertErrorAs fails the test unless err wraps an error of type T, and
// returns it.
func AssertErrorAs[T error](t *testing.T, err error) T {
	t.Helper()
	var target T
	if err == nil {
		t.Fatalf("expected %T, got nil", target)
	}
	if !errors.As(err, &target) {
		t.Fatalf("expected %T, got %T: %v", target, err, err)
	}
	return target
}
