package openai

import (
	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
	"mercator-hq/patientseek/pkg/registry"
)

// StructuredOutputSchemaName is the json_schema name used when a request
// carries an output schema.
const StructuredOutputSchemaName = "output"

// BuildRequest assembles the wire request for modelName. Every failure is
// raised here, before any transport call.
func BuildRequest(reg *registry.Registry, modelName string, req *protocol.GenerateRequest) (*ChatCompletionRequest, error) {
	if req == nil {
		req = &protocol.GenerateRequest{}
	}

	ref, err := reg.Resolve(modelName)
	if err != nil {
		return nil, err
	}
	if err := reg.ValidateConfig(modelName, req.Config); err != nil {
		return nil, err
	}

	messages, err := ToWireMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	body := &ChatCompletionRequest{
		Model:    wireModelID(ref, req.Config),
		Messages: messages,
		Tools:    ToWireTools(req.Tools),
		N:        req.Candidates,
	}
	applySampling(body, req.Config)

	if format := req.OutputFormat(); format != "" && reg.AllowsStructuredOutput(body.Model) {
		rf, err := responseFormat(ref, format, req.Output.Schema)
		if err != nil {
			return nil, err
		}
		body.ResponseFormat = rf
	}

	return body, nil
}

// wireModelID picks the request version, then the registry version, then the
// bare name.
func wireModelID(ref registry.ModelReference, cfg *protocol.GenerationConfig) string {
	if cfg != nil && cfg.Version != nil && *cfg.Version != "" {
		return *cfg.Version
	}
	if ref.Version != "" {
		return ref.Version
	}
	return ref.Name
}

func applySampling(body *ChatCompletionRequest, cfg *protocol.GenerationConfig) {
	if cfg == nil {
		return
	}
	body.Temperature = cfg.Temperature
	body.MaxTokens = cfg.MaxOutputTokens
	body.TopP = cfg.TopP
	body.Stop = cfg.StopSequences
	body.FrequencyPenalty = cfg.FrequencyPenalty
	body.PresencePenalty = cfg.PresencePenalty
	body.LogitBias = cfg.LogitBias
	body.LogProbs = cfg.LogProbs
	body.TopLogProbs = cfg.TopLogProbs
	body.Seed = cfg.Seed
	body.User = cfg.User
}

func responseFormat(ref registry.ModelReference, format protocol.OutputFormat, schema map[string]any) (*ResponseFormat, error) {
	if !ref.Info.SupportsOutput(format) {
		return nil, &providers.UnsupportedResponseFormatError{Format: string(format), Model: ref.Name}
	}

	switch format {
	case protocol.OutputJSON:
		if schema != nil {
			return &ResponseFormat{
				Type: ResponseFormatJSONSchema,
				JSONSchema: &JSONSchema{
					Name:   StructuredOutputSchemaName,
					Schema: schema,
					Strict: true,
				},
			}, nil
		}
		return &ResponseFormat{Type: ResponseFormatJSONObject}, nil
	case protocol.OutputText:
		return &ResponseFormat{Type: ResponseFormatText}, nil
	default:
		return nil, &providers.UnsupportedResponseFormatError{Format: string(format), Model: ref.Name}
	}
}
