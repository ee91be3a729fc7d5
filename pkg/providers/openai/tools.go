package openai

import "mercator-hq/patientseek/pkg/protocol"

// ToolTypeFunction is the only tool type the chat-completions API defines.
const ToolTypeFunction = "function"

// ToWireTool converts a tool definition to a wire tool declaration. A nil
// input schema leaves parameters absent rather than sending {}.
func ToWireTool(def protocol.ToolDefinition) Tool {
	fn := FunctionDefinition{
		Name:        def.Name,
		Description: def.Description,
	}
	if def.InputSchema != nil {
		fn.Parameters = def.InputSchema
	}
	return Tool{
		Type:     ToolTypeFunction,
		Function: fn,
	}
}

// ToWireTools converts tool definitions in order. It returns nil for an
// empty list.
func ToWireTools(defs []protocol.ToolDefinition) []Tool {
	if len(defs) == 0 {
		return nil
	}
	tools := make([]Tool, len(defs))
	for i, def := range defs {
		tools[i] = ToWireTool(def)
	}
	return tools
}
