package telemetry

import (
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/patientseek/pkg/config"
	"mercator-hq/patientseek/pkg/telemetry/logging"
	"mercator-hq/patientseek/pkg/telemetry/metrics"
)

// Telemetry holds the logger and metrics collector built from one
// telemetry configuration.
type Telemetry struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// New builds the logger and metrics collector. Logs go to w, or to stderr
// when w is nil. A disabled metrics section yields a collector that records
// nothing.
func New(cfg config.TelemetryConfig, w io.Writer) (*Telemetry, error) {
	logCfg := cfg.Logging.Logging()
	logCfg.Writer = w

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Telemetry{
		logger:  logger,
		metrics: metrics.NewCollector(cfg.Metrics, nil),
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *slog.Logger {
	return t.logger
}

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector {
	return t.metrics
}
