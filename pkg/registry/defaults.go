package registry

import "mercator-hq/patientseek/pkg/protocol"

// PatientSeek is the registry key of the hosted PatientSeek model.
const PatientSeek = "whyhow-ai/PatientSeek"

// CommonConfigSchema is the JSON Schema of the generation options every
// model accepts.
func CommonConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"version":         map[string]any{"type": "string"},
			"temperature":     map[string]any{"type": "number"},
			"maxOutputTokens": map[string]any{"type": "integer"},
			"topK":            map[string]any{"type": "integer"},
			"topP":            map[string]any{"type": "number"},
			"stopSequences": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}
}

// DeepSeekConfigSchema extends CommonConfigSchema with the OpenAI-specific
// sampling options.
func DeepSeekConfigSchema() map[string]any {
	schema := CommonConfigSchema()
	props := schema["properties"].(map[string]any)

	props["frequencyPenalty"] = map[string]any{"type": "number", "minimum": -2, "maximum": 2}
	props["presencePenalty"] = map[string]any{"type": "number", "minimum": -2, "maximum": 2}
	props["logitBias"] = map[string]any{
		"type":                 "object",
		"additionalProperties": map[string]any{"type": "number", "minimum": -100, "maximum": 100},
	}
	props["logProbs"] = map[string]any{"type": "boolean"}
	props["seed"] = map[string]any{"type": "integer"}
	props["topLogProbs"] = map[string]any{"type": "integer", "minimum": 0, "maximum": 20}
	props["user"] = map[string]any{"type": "string"}

	return schema
}

// PatientSeekModel returns the reference of the hosted PatientSeek model.
func PatientSeekModel() ModelReference {
	return ModelReference{
		Name: PatientSeek,
		Info: protocol.ModelInfo{
			Label: "Whyhow - PatientSeek",
			Supports: protocol.ModelSupports{
				Media:      false,
				Output:     []protocol.OutputFormat{protocol.OutputText, protocol.OutputJSON},
				Multiturn:  true,
				SystemRole: true,
				Tools:      false,
			},
		},
		ConfigSchema: DeepSeekConfigSchema(),
	}
}

// Default returns a registry holding the PatientSeek model, with the model
// also on the structured-output allow-list.
func Default() *Registry {
	r := New(PatientSeekModel())
	r.AllowStructuredOutput(PatientSeek)
	return r
}
