package openai

import (
	"encoding/json"
	"fmt"

	"mercator-hq/patientseek/pkg/protocol"
)

// ToWireMessages translates normalized messages to wire messages, preserving
// order. Tool messages expand into one wire message per tool response.
// Empty content is permitted; an unknown role is not.
func ToWireMessages(messages []protocol.Message) ([]ChatMessage, error) {
	out := make([]ChatMessage, 0, len(messages))

	for i, msg := range messages {
		role, err := ToWireRole(msg.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		switch role {
		case RoleTool:
			responses := msg.ToolResponses()
			if len(responses) == 0 {
				out = append(out, ChatMessage{
					Role:       RoleTool,
					ToolCallID: protocol.Ptr(""),
					Content:    protocol.Ptr(""),
				})
				continue
			}
			for _, resp := range responses {
				content, err := toolOutputString(resp.Output)
				if err != nil {
					return nil, fmt.Errorf("message %d: tool response %q: %w", i, resp.Name, err)
				}
				out = append(out, ChatMessage{
					Role:       RoleTool,
					ToolCallID: protocol.Ptr(resp.Ref),
					Content:    protocol.Ptr(content),
				})
			}

		case RoleAssistant:
			if requests := msg.ToolRequests(); len(requests) > 0 {
				calls, err := toWireToolCalls(requests)
				if err != nil {
					return nil, fmt.Errorf("message %d: %w", i, err)
				}
				out = append(out, ChatMessage{
					Role:      RoleAssistant,
					Name:      msg.Name,
					ToolCalls: calls,
				})
				continue
			}
			out = append(out, textMessage(role, msg))

		default:
			out = append(out, textMessage(role, msg))
		}
	}

	return out, nil
}

func textMessage(role string, msg protocol.Message) ChatMessage {
	return ChatMessage{
		Role:    role,
		Name:    msg.Name,
		Content: protocol.Ptr(msg.Text()),
	}
}

func toWireToolCalls(requests []protocol.ToolRequestPart) ([]ToolCall, error) {
	calls := make([]ToolCall, 0, len(requests))
	for _, req := range requests {
		args, err := json.Marshal(req.Input)
		if err != nil {
			return nil, fmt.Errorf("tool request %q: failed to encode input: %w", req.Name, err)
		}
		calls = append(calls, ToolCall{
			ID:   req.Ref,
			Type: ToolTypeFunction,
			Function: &FunctionCall{
				Name:      req.Name,
				Arguments: string(args),
			},
		})
	}
	return calls, nil
}

// toolOutputString passes string outputs through and JSON-encodes the rest.
func toolOutputString(output any) (string, error) {
	if s, ok := output.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	return string(data), nil
}
