package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/patientseek/pkg/config"
)

// Generate modes
const (
	ModeUnary  = "unary"
	ModeStream = "stream"
)

// Stream channels
const (
	ChannelContent   = "content"
	ChannelReasoning = "reasoning"
)

// Token directions
const (
	DirectionInput  = "input"
	DirectionOutput = "output"
)

// Collector records generate-call metrics. A nil *Collector is valid and
// records nothing, so callers never need to guard it.
type Collector struct {
	config   config.MetricsConfig
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	streamChunksTotal *prometheus.CounterVec
	chunkErrorsTotal  *prometheus.CounterVec
	tokensTotal       *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil, a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "patientseek",
//	}, nil)
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "patientseek"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// LLM latencies, 100ms to 2m
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generate_requests_total",
				Help:      "Total number of generate calls",
			},
			[]string{"model", "mode"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generate_errors_total",
				Help:      "Total number of failed generate calls by error type",
			},
			[]string{"model", "error_type"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "generate_duration_seconds",
				Help:      "Generate call duration in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"model", "mode"},
		),
		streamChunksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_chunks_total",
				Help:      "Total number of streamed fragments forwarded to callers",
			},
			[]string{"model", "channel"},
		),
		chunkErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_chunk_errors_total",
				Help:      "Total number of stream chunks skipped because they could not be processed",
			},
			[]string{"model"},
		),
		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total number of tokens reported by the backend",
			},
			[]string{"model", "direction"},
		),
	}

	registry.MustRegister(
		c.requestsTotal,
		c.errorsTotal,
		c.requestDuration,
		c.streamChunksTotal,
		c.chunkErrorsTotal,
		c.tokensTotal,
	)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordRequest records a finished generate call.
func (c *Collector) RecordRequest(model, mode string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.requestsTotal.WithLabelValues(model, mode).Inc()
	c.requestDuration.WithLabelValues(model, mode).Observe(duration.Seconds())
}

// RecordError records a failed generate call. errorType is usually
// providers.ErrorType(err).
func (c *Collector) RecordError(model, errorType string) {
	if !c.enabled() {
		return
	}
	c.errorsTotal.WithLabelValues(model, errorType).Inc()
}

// RecordStream records what one stream forwarded and skipped.
func (c *Collector) RecordStream(model string, contentEvents, reasoningEvents, skipped int) {
	if !c.enabled() {
		return
	}
	c.streamChunksTotal.WithLabelValues(model, ChannelContent).Add(float64(contentEvents))
	c.streamChunksTotal.WithLabelValues(model, ChannelReasoning).Add(float64(reasoningEvents))
	if skipped > 0 {
		c.chunkErrorsTotal.WithLabelValues(model).Add(float64(skipped))
	}
}

// RecordTokens records reported token usage. Nil counts were not reported
// and are skipped.
func (c *Collector) RecordTokens(model string, input, output *int) {
	if !c.enabled() {
		return
	}
	if input != nil {
		c.tokensTotal.WithLabelValues(model, DirectionInput).Add(float64(*input))
	}
	if output != nil {
		c.tokensTotal.WithLabelValues(model, DirectionOutput).Add(float64(*output))
	}
}
