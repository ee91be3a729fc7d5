package openai

import (
	"encoding/json"
	"errors"
	"fmt"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
)

// Wire finish reasons
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
	FinishReasonFunctionCall  = "function_call"
)

// finishReasons maps wire finish reasons to normalized ones. Codes missing
// from the table normalize to other.
var finishReasons = map[string]protocol.FinishReason{
	FinishReasonLength:        protocol.FinishReasonLength,
	FinishReasonStop:          protocol.FinishReasonStop,
	FinishReasonToolCalls:     protocol.FinishReasonStop,
	FinishReasonContentFilter: protocol.FinishReasonBlocked,
	FinishReasonFunctionCall:  protocol.FinishReasonOther,
}

// FinishReasonFromWire normalizes a finished choice's finish reason.
func FinishReasonFromWire(reason string) protocol.FinishReason {
	if fr, ok := finishReasons[reason]; ok {
		return fr
	}
	return protocol.FinishReasonOther
}

// ChunkFinishReason normalizes a stream choice's finish reason. A missing
// reason means the stream is still open.
func ChunkFinishReason(reason *string) protocol.FinishReason {
	if reason == nil || *reason == "" {
		return protocol.FinishReasonUnknown
	}
	return FinishReasonFromWire(*reason)
}

// FromToolCall converts a wire tool call at position index. Arguments are
// decoded only when the choice finished with tool_calls; otherwise the call
// is unconfirmed and carries no input.
func FromToolCall(index int, call ToolCall, finishReason string) (protocol.ToolRequestPart, error) {
	if call.Function == nil {
		return protocol.ToolRequestPart{}, &providers.MalformedToolCallError{Index: index, ID: call.ID}
	}

	part := protocol.ToolRequestPart{
		Name: call.Function.Name,
		Ref:  call.ID,
	}
	if finishReason != FinishReasonToolCalls || call.Function.Arguments == "" {
		return part, nil
	}

	var input any
	if err := json.Unmarshal([]byte(call.Function.Arguments), &input); err != nil {
		return protocol.ToolRequestPart{}, &providers.ParseError{
			Provider:    "openai",
			RawResponse: call.Function.Arguments,
			Cause:       fmt.Errorf("tool call %q arguments: %w", call.Function.Name, err),
		}
	}
	part.Input = input
	return part, nil
}

// FromChoice converts one finished wire choice into a candidate.
func FromChoice(choice Choice, jsonMode bool) (protocol.CandidateData, error) {
	content, err := choiceContent(choice.Message.ReasoningContent, choice.Message.ToolCalls, choice.Message.Text(), choice.FinishReason, jsonMode)
	if err != nil {
		return protocol.CandidateData{}, fmt.Errorf("choice %d: %w", choice.Index, err)
	}

	return protocol.CandidateData{
		Index:        choice.Index,
		FinishReason: FinishReasonFromWire(choice.FinishReason),
		Message: protocol.CandidateMessage{
			Role:    protocol.RoleModel,
			Content: content,
		},
		Custom: map[string]any{},
	}, nil
}

// FromChoices converts every choice independently. A choice that fails is
// left out and its error joined into the returned error; the others are
// still returned.
func FromChoices(choices []Choice, jsonMode bool) ([]protocol.CandidateData, error) {
	candidates := make([]protocol.CandidateData, 0, len(choices))
	var errs []error
	for _, choice := range choices {
		c, err := FromChoice(choice, jsonMode)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates, errors.Join(errs...)
}

// FromChunkChoice converts one stream delta into a candidate-shaped value.
// The finish reason stays unknown until the backend reports one.
func FromChunkChoice(choice StreamChoice, jsonMode bool) (protocol.CandidateData, error) {
	finishReason := ""
	if choice.FinishReason != nil {
		finishReason = *choice.FinishReason
	}

	content, err := choiceContent(choice.Delta.ReasoningText(), choice.Delta.ToolCalls, choice.Delta.Content, finishReason, jsonMode)
	if err != nil {
		return protocol.CandidateData{}, fmt.Errorf("chunk choice %d: %w", choice.Index, err)
	}

	return protocol.CandidateData{
		Index:        choice.Index,
		FinishReason: ChunkFinishReason(choice.FinishReason),
		Message: protocol.CandidateMessage{
			Role:    protocol.RoleModel,
			Content: content,
		},
		Custom: map[string]any{},
	}, nil
}

func choiceContent(reasoning string, calls []ToolCall, text, finishReason string, jsonMode bool) ([]protocol.Part, error) {
	var parts []protocol.Part
	if reasoning != "" {
		parts = append(parts, protocol.ReasoningPart{Text: reasoning})
	}

	if len(calls) > 0 {
		for i, call := range calls {
			part, err := FromToolCall(i, call, finishReason)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return parts, nil
	}

	if !jsonMode {
		return append(parts, protocol.TextPart{Text: text}), nil
	}

	var data any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, &providers.ParseError{
			Provider:    "openai",
			RawResponse: text,
			Cause:       fmt.Errorf("json output: %w", err),
		}
	}
	return append(parts, protocol.DataPart{Data: data}), nil
}
