package openai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
)

// StreamState is the lifecycle state of a StreamAggregator.
type StreamState int

const (
	// StateIdle is the state before the first chunk.
	StateIdle StreamState = iota
	// StateAccumulating is the state while chunks arrive.
	StateAccumulating
	// StateFinalized is the state once the final response was synthesized.
	StateFinalized
)

// String returns the state name.
func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// ErrStreamFinalized is returned when a finalized aggregator is used again.
var ErrStreamFinalized = errors.New("openai: stream already finalized")

// msgNoChunks is the message reported when a stream ends before any chunk was
// applied.
const msgNoChunks = "stream ended without producing any chunk"

// StreamStats counts what an aggregator processed.
type StreamStats struct {
	// Chunks counts every chunk seen, Applied only those folded without error
	Chunks          int
	Applied         int
	ContentEvents   int
	ReasoningEvents int
	SkippedChunks   int
}

// StreamAggregator folds a chunk stream into one completion. It forwards
// every content and reasoning fragment to the callback as it arrives.
//
// An aggregator serves exactly one stream and is not safe for concurrent use.
type StreamAggregator struct {
	model    string
	callback protocol.StreamingCallback
	logger   *slog.Logger

	state        StreamState
	text         strings.Builder
	reasoning    strings.Builder
	currentIndex int

	toolCalls []ToolCall
	toolIndex map[int]int

	stats StreamStats
}

// NewStreamAggregator creates an aggregator for one stream of model. cb may
// be nil.
func NewStreamAggregator(model string, cb protocol.StreamingCallback, logger *slog.Logger) *StreamAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamAggregator{
		model:     model,
		callback:  cb,
		logger:    logger,
		toolIndex: make(map[int]int),
	}
}

// State returns the current lifecycle state.
func (a *StreamAggregator) State() StreamState { return a.state }

// Text returns the accumulated content.
func (a *StreamAggregator) Text() string { return a.text.String() }

// Reasoning returns the accumulated reasoning text.
func (a *StreamAggregator) Reasoning() string { return a.reasoning.String() }

// CurrentIndex returns the choice index of the most recent chunk.
func (a *StreamAggregator) CurrentIndex() int { return a.currentIndex }

// Stats returns processing counters.
func (a *StreamAggregator) Stats() StreamStats { return a.stats }

// Apply folds one chunk. Only the first choice is inspected. Reasoning is
// forwarded before content when a chunk carries both. A chunk with a
// malformed tool-call delta is rejected as a whole with a
// StreamChunkProcessingError and leaves the aggregator untouched. A
// callback error is returned unchanged and means the caller aborted.
func (a *StreamAggregator) Apply(ctx context.Context, chunk *ChatCompletionChunk) error {
	if a.state == StateFinalized {
		return ErrStreamFinalized
	}
	a.state = StateAccumulating
	a.stats.Chunks++

	if chunk == nil || len(chunk.Choices) == 0 {
		a.stats.Applied++
		return nil
	}
	choice := chunk.Choices[0]

	for i, call := range choice.Delta.ToolCalls {
		if call.Function == nil {
			idx := i
			if call.Index != nil {
				idx = *call.Index
			}
			return &providers.StreamChunkProcessingError{
				Raw:   chunk.ID,
				Cause: &providers.MalformedToolCallError{Index: idx, ID: call.ID},
			}
		}
	}

	a.currentIndex = choice.Index
	a.stats.Applied++

	if reasoning := choice.Delta.ReasoningText(); reasoning != "" {
		a.reasoning.WriteString(reasoning)
		a.stats.ReasoningEvents++
		if err := a.emit(ctx, protocol.ReasoningPart{Text: reasoning}); err != nil {
			return err
		}
	}

	if content := choice.Delta.Content; content != "" {
		a.text.WriteString(content)
		a.stats.ContentEvents++
		if err := a.emit(ctx, protocol.TextPart{Text: content}); err != nil {
			return err
		}
	}

	for i, call := range choice.Delta.ToolCalls {
		a.mergeToolCall(i, call)
	}

	return nil
}

func (a *StreamAggregator) emit(ctx context.Context, part protocol.Part) error {
	if a.callback == nil {
		return nil
	}
	return a.callback(ctx, &protocol.GenerateResponseChunk{
		Index:   a.currentIndex,
		Role:    protocol.RoleModel,
		Content: []protocol.Part{part},
	})
}

// mergeToolCall folds a tool-call fragment into the call with the same
// index: the latest non-empty id and name win and arguments concatenate.
// delta.Function must be non-nil.
func (a *StreamAggregator) mergeToolCall(position int, delta ToolCall) {
	idx := position
	if delta.Index != nil {
		idx = *delta.Index
	}

	slot, ok := a.toolIndex[idx]
	if !ok {
		slot = len(a.toolCalls)
		a.toolIndex[idx] = slot
		a.toolCalls = append(a.toolCalls, ToolCall{
			Type:     ToolTypeFunction,
			Function: &FunctionCall{},
		})
	}

	call := &a.toolCalls[slot]
	if delta.ID != "" {
		call.ID = delta.ID
	}
	if delta.Type != "" {
		call.Type = delta.Type
	}
	if delta.Function.Name != "" {
		call.Function.Name = delta.Function.Name
	}
	call.Function.Arguments += delta.Function.Arguments
}

// Consume reads reader until io.EOF and returns the finalized completion.
// Chunk processing errors are logged and skipped. Any other reader error is
// fatal and reported as a StreamTransportError, as is a stream that ends
// before a single chunk was applied. Cancelling ctx stops consumption
// without a final response.
func (a *StreamAggregator) Consume(ctx context.Context, reader StreamReader) (*ChatCompletion, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		chunk, err := reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if a.skippable(err) {
				continue
			}
			var transportErr *providers.StreamTransportError
			if errors.As(err, &transportErr) {
				return nil, err
			}
			return nil, &providers.StreamTransportError{
				Provider: a.model,
				Message:  "failed to read stream",
				Cause:    err,
			}
		}

		if err := a.Apply(ctx, chunk); err != nil {
			if a.skippable(err) {
				continue
			}
			return nil, err
		}
	}

	if a.stats.Applied == 0 {
		return nil, &providers.StreamTransportError{
			Provider: a.model,
			Message:  msgNoChunks,
		}
	}
	return a.Finalize()
}

func (a *StreamAggregator) skippable(err error) bool {
	var chunkErr *providers.StreamChunkProcessingError
	if !errors.As(err, &chunkErr) {
		return false
	}
	a.stats.SkippedChunks++
	a.logger.Warn("skipping stream chunk",
		"model", a.model,
		"error", err,
	)
	return true
}

// Finalize synthesizes the completion from the accumulated state. It always
// carries exactly one choice and zero usage, since the streaming path does
// not report token counts.
func (a *StreamAggregator) Finalize() (*ChatCompletion, error) {
	if a.state == StateFinalized {
		return nil, ErrStreamFinalized
	}
	a.state = StateFinalized

	msg := ChatMessage{
		Role:             RoleAssistant,
		Content:          protocol.Ptr(a.text.String()),
		ReasoningContent: a.reasoning.String(),
	}
	finishReason := FinishReasonStop
	if len(a.toolCalls) > 0 {
		msg.ToolCalls = a.toolCalls
		finishReason = FinishReasonToolCalls
	}

	zero := 0
	return &ChatCompletion{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   a.model,
		Choices: []Choice{{
			Index:        a.currentIndex,
			Message:      msg,
			FinishReason: finishReason,
		}},
		Usage: &Usage{
			PromptTokens:     &zero,
			CompletionTokens: &zero,
			TotalTokens:      &zero,
		},
	}, nil
}
