package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  logging:
    level: info
`)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := NewWatcher(path, 20*time.Millisecond, logger)
	require.NoError(t, err)
	defer w.Stop()

	require.Equal(t, "info", w.Current().Telemetry.Logging.Level)

	reloaded := make(chan *Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(cfg *Config) { reloaded <- cfg })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("telemetry:\n  logging:\n    level: debug\n"), 0644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.Telemetry.Logging.Level)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	assert.Equal(t, "debug", w.Current().Telemetry.Logging.Level, "Current should reflect the reload")
}

func TestWatcher_InvalidReloadKeepsPrevious(t *testing.T) {
	path := writeConfig(t, "provider:\n  max_retries: 1\n")

	w, err := NewWatcher(path, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("provider:\n  max_retries: -3\n"), 0644))

	called := false
	w.reload(func(*Config) { called = true })

	assert.False(t, called, "callback should be skipped for invalid configuration")
	assert.Equal(t, 1, w.Current().Provider.MaxRetries, "previous configuration should remain")
}

func TestNewWatcher_InitialLoadFails(t *testing.T) {
	_, err := NewWatcher(writeConfig(t, "provider: [x"), 0, nil)
	assert.Error(t, err)
}

func TestWatcher_StopWithoutWatch(t *testing.T) {
	w, err := NewWatcher(writeConfig(t, ""), 0, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Stop())
}
