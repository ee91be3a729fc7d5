package deepseek

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
	"mercator-hq/patientseek/pkg/providers/openai"
	"mercator-hq/patientseek/pkg/registry"
	"mercator-hq/patientseek/pkg/telemetry/logging"
	"mercator-hq/patientseek/pkg/telemetry/metrics"
)

// Model is one generate-capable model of a Plugin.
type Model struct {
	name   string
	plugin *Plugin
}

// Name returns the registry name.
func (m *Model) Name() string { return m.name }

// ID returns the namespaced id, e.g. "deepseek/whyhow-ai/PatientSeek".
func (m *Model) ID() string { return PluginName + "/" + m.name }

// Reference returns the model's current registry entry.
func (m *Model) Reference() (registry.ModelReference, error) {
	return m.plugin.registry.Resolve(m.name)
}

// Info returns the advertised capabilities.
func (m *Model) Info() protocol.ModelInfo {
	ref, err := m.Reference()
	if err != nil {
		return protocol.ModelInfo{}
	}
	return ref.Info
}

// Generate runs one generate call. With a nil callback it performs a single
// round trip; otherwise it streams, invoking cb for every reasoning and
// content fragment in arrival order, and returns once the stream ends.
//
// Request translation failures are returned before anything is sent. When
// some choices translate and others do not, the translated candidates are
// returned together with the joined error.
func (m *Model) Generate(ctx context.Context, req *protocol.GenerateRequest, cb protocol.StreamingCallback) (*protocol.GenerateResponseData, error) {
	if logging.GetRequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}
	ctx = logging.WithModel(ctx, m.name)

	mode := metrics.ModeUnary
	if cb != nil {
		mode = metrics.ModeStream
	}
	start := time.Now()

	body, err := openai.BuildRequest(m.plugin.registry, m.name, req)
	if err != nil {
		return nil, m.fail(ctx, mode, err)
	}

	var resp *openai.ChatCompletion
	if cb == nil {
		resp, err = m.plugin.client.CreateChatCompletion(ctx, body)
	} else {
		resp, err = m.stream(ctx, body, cb)
	}
	if err != nil {
		return nil, m.fail(ctx, mode, err)
	}

	jsonMode := req != nil && req.OutputFormat() == protocol.OutputJSON
	candidates, err := openai.FromChoices(resp.Choices, jsonMode)

	out := &protocol.GenerateResponseData{
		Candidates: candidates,
		Usage:      usageFromWire(resp.Usage),
		Custom:     resp,
	}

	duration := time.Since(start)
	m.plugin.metrics.RecordRequest(m.name, mode, duration)
	m.plugin.metrics.RecordTokens(m.name, out.Usage.InputTokens, out.Usage.OutputTokens)

	if err != nil {
		m.plugin.metrics.RecordError(m.name, providers.ErrorType(err))
		m.plugin.logger.WarnContext(ctx, "some choices could not be translated",
			"candidates", len(candidates),
			"choices", len(resp.Choices),
			"error", err,
		)
		return out, err
	}

	m.plugin.logger.DebugContext(ctx, "generate completed",
		"mode", mode,
		"candidates", len(candidates),
		"duration_ms", duration.Milliseconds(),
	)
	return out, nil
}

func (m *Model) stream(ctx context.Context, body *openai.ChatCompletionRequest, cb protocol.StreamingCallback) (*openai.ChatCompletion, error) {
	reader, err := m.plugin.client.StreamChatCompletion(ctx, body)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	agg := openai.NewStreamAggregator(body.Model, cb, m.plugin.logger)
	resp, err := agg.Consume(ctx, reader)

	stats := agg.Stats()
	m.plugin.metrics.RecordStream(m.name, stats.ContentEvents, stats.ReasoningEvents, stats.SkippedChunks)
	m.plugin.logger.DebugContext(ctx, "stream finished",
		"chunks", stats.Chunks,
		"skipped", stats.SkippedChunks,
		"state", agg.State().String(),
	)

	return resp, err
}

func (m *Model) fail(ctx context.Context, mode string, err error) error {
	errType := providers.ErrorType(err)
	m.plugin.metrics.RecordError(m.name, errType)
	m.plugin.logger.ErrorContext(ctx, "generate failed",
		"mode", mode,
		"error_type", errType,
		"error", err,
	)
	return err
}

// usageFromWire copies reported counts; absent counts stay nil.
func usageFromWire(u *openai.Usage) protocol.Usage {
	if u == nil {
		return protocol.Usage{}
	}
	return protocol.Usage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}
