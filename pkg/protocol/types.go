package protocol

import (
	"context"
	"strings"
)

// Role identifies the author of a normalized message.
type Role string

// Normalized roles. The set is closed; translators reject anything else.
const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
	RoleTool   Role = "tool"
)

// PartKind tags the variant held by a Part.
type PartKind string

const (
	KindText         PartKind = "text"
	KindToolRequest  PartKind = "toolRequest"
	KindToolResponse PartKind = "toolResponse"
	KindData         PartKind = "data"
	KindReasoning    PartKind = "reasoning"
)

// Part is one element of a message's content. It is a closed sum type:
// only the part structs declared in this package implement it.
type Part interface {
	Kind() PartKind
	isPart()
}

// TextPart carries plain text.
type TextPart struct {
	Text string `json:"text"`
}

// ToolRequestPart is a model's request to invoke a tool.
type ToolRequestPart struct {
	// Name is the tool to call
	Name string `json:"name"`

	// Ref correlates the request with its response (the wire tool call id)
	Ref string `json:"ref,omitempty"`

	// Input is the decoded tool input. Nil means the call carried no
	// confirmed input yet.
	Input any `json:"input,omitempty"`
}

// ToolResponsePart is the result of a tool invocation, sent back to the model.
type ToolResponsePart struct {
	Name   string `json:"name,omitempty"`
	Ref    string `json:"ref,omitempty"`
	Output any    `json:"output"`
}

// DataPart carries structured (JSON) output.
type DataPart struct {
	Data any `json:"data"`
}

// ReasoningPart carries model-internal deliberation text, reported by some
// backends separately from the answer.
type ReasoningPart struct {
	Text string `json:"reasoning"`
}

func (TextPart) Kind() PartKind         { return KindText }
func (ToolRequestPart) Kind() PartKind  { return KindToolRequest }
func (ToolResponsePart) Kind() PartKind { return KindToolResponse }
func (DataPart) Kind() PartKind         { return KindData }
func (ReasoningPart) Kind() PartKind    { return KindReasoning }

func (TextPart) isPart()         {}
func (ToolRequestPart) isPart()  {}
func (ToolResponsePart) isPart() {}
func (DataPart) isPart()         {}
func (ReasoningPart) isPart()    {}

// NewTextPart returns a text part.
func NewTextPart(text string) Part { return TextPart{Text: text} }

// Message is a single normalized conversation turn.
type Message struct {
	// Role identifies the author
	Role Role `json:"role"`

	// Content is the ordered list of parts
	Content []Part `json:"content"`

	// Name is an optional caller name (function/tool caller)
	Name string `json:"name,omitempty"`
}

// NewTextMessage builds a message holding a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Part{TextPart{Text: text}}}
}

// Text returns the concatenation of the message's text parts.
func (m Message) Text() string {
	return TextOf(m.Content)
}

// ToolRequests returns the tool request parts in order.
func (m Message) ToolRequests() []ToolRequestPart {
	var out []ToolRequestPart
	for _, p := range m.Content {
		if tr, ok := p.(ToolRequestPart); ok {
			out = append(out, tr)
		}
	}
	return out
}

// ToolResponses returns the tool response parts in order.
func (m Message) ToolResponses() []ToolResponsePart {
	var out []ToolResponsePart
	for _, p := range m.Content {
		if tr, ok := p.(ToolResponsePart); ok {
			out = append(out, tr)
		}
	}
	return out
}

// TextOf concatenates the text parts of a part list.
func TextOf(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

// ReasoningOf concatenates the reasoning parts of a part list.
func ReasoningOf(parts []Part) string {
	var b strings.Builder
	for _, p := range parts {
		if r, ok := p.(ReasoningPart); ok {
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// ToolDefinition describes a tool the model may call.
type ToolDefinition struct {
	// Name is the tool name
	Name string `json:"name"`

	// Description explains what the tool does
	Description string `json:"description,omitempty"`

	// InputSchema is a JSON Schema for the tool input. Nil means the tool
	// declares no parameters.
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// GenerationConfig holds sampling options. Every field is optional; nil
// means "not set by the caller".
type GenerationConfig struct {
	Version          *string            `json:"version,omitempty"`
	Temperature      *float64           `json:"temperature,omitempty"`
	MaxOutputTokens  *int               `json:"maxOutputTokens,omitempty"`
	TopK             *int               `json:"topK,omitempty"`
	TopP             *float64           `json:"topP,omitempty"`
	StopSequences    []string           `json:"stopSequences,omitempty"`
	FrequencyPenalty *float64           `json:"frequencyPenalty,omitempty"`
	PresencePenalty  *float64           `json:"presencePenalty,omitempty"`
	LogitBias        map[string]float64 `json:"logitBias,omitempty"`
	LogProbs         *bool              `json:"logProbs,omitempty"`
	TopLogProbs      *int               `json:"topLogProbs,omitempty"`
	Seed             *int               `json:"seed,omitempty"`
	User             *string            `json:"user,omitempty"`
}

// OutputFormat is the requested output encoding.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// OutputConfig selects structured output.
type OutputConfig struct {
	Format OutputFormat   `json:"format,omitempty"`
	Schema map[string]any `json:"schema,omitempty"`
}

// GenerateRequest is the model-agnostic generate call.
type GenerateRequest struct {
	Messages   []Message         `json:"messages"`
	Config     *GenerationConfig `json:"config,omitempty"`
	Tools      []ToolDefinition  `json:"tools,omitempty"`
	Output     *OutputConfig     `json:"output,omitempty"`
	Candidates *int              `json:"candidates,omitempty"`
}

// OutputFormat returns the requested output format, or "" when unset.
func (r *GenerateRequest) OutputFormat() OutputFormat {
	if r == nil || r.Output == nil {
		return ""
	}
	return r.Output.Format
}

// FinishReason is the normalized cause of generation termination.
type FinishReason string

const (
	FinishReasonStop    FinishReason = "stop"
	FinishReasonLength  FinishReason = "length"
	FinishReasonBlocked FinishReason = "blocked"
	FinishReasonOther   FinishReason = "other"
	FinishReasonUnknown FinishReason = "unknown"
)

// CandidateMessage is the message body of a candidate. Its role is always
// RoleModel.
type CandidateMessage struct {
	Role    Role   `json:"role"`
	Content []Part `json:"content"`
}

// CandidateData is one normalized completion alternative.
type CandidateData struct {
	Index        int              `json:"index"`
	FinishReason FinishReason     `json:"finishReason"`
	Message      CandidateMessage `json:"message"`
	Custom       map[string]any   `json:"custom"`
}

// Text returns the candidate's concatenated text.
func (c CandidateData) Text() string {
	return TextOf(c.Message.Content)
}

// Usage reports token consumption. A nil field was not reported.
type Usage struct {
	InputTokens  *int `json:"inputTokens,omitempty"`
	OutputTokens *int `json:"outputTokens,omitempty"`
	TotalTokens  *int `json:"totalTokens,omitempty"`
}

// GenerateResponseData is the normalized response of a generate call.
type GenerateResponseData struct {
	Candidates []CandidateData `json:"candidates"`
	Usage      Usage           `json:"usage"`

	// Custom is the backend payload the response was built from
	Custom any `json:"custom,omitempty"`
}

// Text returns the text of the first candidate.
func (r *GenerateResponseData) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0].Text()
}

// GenerateResponseChunk is one partial-content notification delivered while
// a response streams.
type GenerateResponseChunk struct {
	Index   int    `json:"index"`
	Role    Role   `json:"role"`
	Content []Part `json:"content"`
}

// StreamingCallback receives partial content in arrival order. Returning an
// error aborts the stream.
type StreamingCallback func(ctx context.Context, chunk *GenerateResponseChunk) error

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
