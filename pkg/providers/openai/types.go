package openai

import "encoding/json"

// Wire request types

// ChatCompletionRequest is the chat-completions request body.
//
// Optional top-level fields carry no omitempty tag: the encoder writes them
// as null and MarshalJSON prunes them, so unset parameters never reach the
// wire while explicit zero values (0, false, "") do.
type ChatCompletionRequest struct {
	Model            string             `json:"model"`
	Messages         []ChatMessage      `json:"messages"`
	Temperature      *float64           `json:"temperature"`
	MaxTokens        *int               `json:"max_tokens"`
	TopP             *float64           `json:"top_p"`
	Stop             []string           `json:"stop"`
	FrequencyPenalty *float64           `json:"frequency_penalty"`
	PresencePenalty  *float64           `json:"presence_penalty"`
	LogitBias        map[string]float64 `json:"logit_bias"`
	LogProbs         *bool              `json:"logprobs"`
	TopLogProbs      *int               `json:"top_logprobs"`
	Seed             *int               `json:"seed"`
	User             *string            `json:"user"`
	Tools            []Tool             `json:"tools"`
	N                *int               `json:"n"`
	ResponseFormat   *ResponseFormat    `json:"response_format"`
	Stream           *bool              `json:"stream"`
}

// MarshalJSON encodes the request and strips unset fields.
func (r ChatCompletionRequest) MarshalJSON() ([]byte, error) {
	type wire ChatCompletionRequest
	data, err := json.Marshal(wire(r))
	if err != nil {
		return nil, err
	}
	return PruneEmptyFields(data)
}

// ChatMessage is a single wire message, used both in requests and in
// completion choices.
type ChatMessage struct {
	Role string `json:"role"`

	// Content is nil when the message carries tool calls instead of text
	Content *string `json:"content,omitempty"`

	// ReasoningContent is the deliberation text some backends return
	// alongside the answer
	ReasoningContent string `json:"reasoning_content,omitempty"`

	Name       string     `json:"name,omitempty"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// Text returns the message content, or "" when there is none.
func (m ChatMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// ToolCall is a function invocation requested by the model. In stream
// deltas Index identifies which call a fragment belongs to.
type ToolCall struct {
	Index    *int          `json:"index,omitempty"`
	ID       string        `json:"id"`
	Type     string        `json:"type,omitempty"`
	Function *FunctionCall `json:"function,omitempty"`
}

// FunctionCall names the function and carries its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares a function the model may call.
type Tool struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes a callable function. Parameters is left nil
// when the tool declares no input schema, which omits the field entirely.
type FunctionDefinition struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Response format types
const (
	ResponseFormatText       = "text"
	ResponseFormatJSONObject = "json_object"
	ResponseFormatJSONSchema = "json_schema"
)

// ResponseFormat is the structured-output directive.
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema constrains json_schema output.
type JSONSchema struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema,omitempty"`
	Strict bool           `json:"strict"`
}

// Wire response types

// ChatCompletion is a finished (non-streaming) completion.
type ChatCompletion struct {
	ID                string   `json:"id"`
	Object            string   `json:"object"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	Choices           []Choice `json:"choices"`
	Usage             *Usage   `json:"usage,omitempty"`
	SystemFingerprint string   `json:"system_fingerprint,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	Index        int             `json:"index"`
	Message      ChatMessage     `json:"message"`
	FinishReason string          `json:"finish_reason"`
	LogProbs     json.RawMessage `json:"logprobs,omitempty"`
}

// Usage reports token counts. A nil field was not reported by the backend.
type Usage struct {
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
	TotalTokens      *int `json:"total_tokens,omitempty"`
}

// Wire streaming types

// ChatCompletionChunk is one Server-Sent Events payload of a streamed
// completion.
type ChatCompletionChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// StreamChoice is the per-choice part of a chunk. FinishReason stays nil
// until the backend reports termination.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Delta is the incremental content of a stream choice. Backends disagree on
// the reasoning field name, so both spellings are accepted.
type Delta struct {
	Role             string     `json:"role,omitempty"`
	Content          string     `json:"content,omitempty"`
	ReasoningContent string     `json:"reasoning_content,omitempty"`
	Reasoning        string     `json:"reasoning,omitempty"`
	ToolCalls        []ToolCall `json:"tool_calls,omitempty"`
}

// ReasoningText returns the reasoning fragment of the delta, whichever
// field carried it.
func (d Delta) ReasoningText() string {
	if d.ReasoningContent != "" {
		return d.ReasoningContent
	}
	return d.Reasoning
}
