package openai

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
	"mercator-hq/patientseek/pkg/registry"
)

func userRequest(text string) *protocol.GenerateRequest {
	return &protocol.GenerateRequest{
		Messages: []protocol.Message{protocol.NewTextMessage(protocol.RoleUser, text)},
	}
}

func marshalBody(t *testing.T, body *ChatCompletionRequest) map[string]any {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestBuildRequest_Minimal(t *testing.T) {
	body, err := BuildRequest(registry.Default(), registry.PatientSeek, userRequest("hi"))
	require.NoError(t, err)

	data, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"whyhow-ai/PatientSeek","messages":[{"role":"user","content":"hi"}]}`, string(data))
}

func TestBuildRequest_UnsupportedModel(t *testing.T) {
	_, err := BuildRequest(registry.Default(), "gpt-4", userRequest("hi"))

	var modelErr *providers.UnsupportedModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "gpt-4", modelErr.Model)
}

func TestBuildRequest_UnsupportedRole(t *testing.T) {
	req := userRequest("hi")
	req.Messages = append(req.Messages, protocol.NewTextMessage("critic", "x"))

	_, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
	var roleErr *providers.UnsupportedRoleError
	assert.True(t, errors.As(err, &roleErr))
}

func TestBuildRequest_InvalidConfig(t *testing.T) {
	req := userRequest("hi")
	req.Config = &protocol.GenerationConfig{TopLogProbs: protocol.Ptr(50)}

	_, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
	var validationErr *providers.ValidationError
	assert.True(t, errors.As(err, &validationErr), "got %v", err)
}

func TestBuildRequest_ModelVersionPrecedence(t *testing.T) {
	versioned := registry.PatientSeekModel()
	versioned.Version = "patientseek-v2"
	reg := registry.New(versioned)

	body, err := BuildRequest(reg, registry.PatientSeek, userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "patientseek-v2", body.Model)

	req := userRequest("hi")
	req.Config = &protocol.GenerationConfig{Version: protocol.Ptr("patientseek-v3")}
	body, err = BuildRequest(reg, registry.PatientSeek, req)
	require.NoError(t, err)
	assert.Equal(t, "patientseek-v3", body.Model)

	body, err = BuildRequest(registry.Default(), registry.PatientSeek, userRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, registry.PatientSeek, body.Model)
}

func TestBuildRequest_Sampling(t *testing.T) {
	req := userRequest("hi")
	req.Candidates = protocol.Ptr(2)
	req.Config = &protocol.GenerationConfig{
		Temperature:      protocol.Ptr(0.2),
		MaxOutputTokens:  protocol.Ptr(256),
		TopP:             protocol.Ptr(0.9),
		StopSequences:    []string{"END"},
		FrequencyPenalty: protocol.Ptr(0.5),
		PresencePenalty:  protocol.Ptr(-0.5),
		LogitBias:        map[string]float64{"42": 10},
		LogProbs:         protocol.Ptr(true),
		TopLogProbs:      protocol.Ptr(3),
		Seed:             protocol.Ptr(7),
		User:             protocol.Ptr("u-1"),
	}

	body, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
	require.NoError(t, err)

	got := marshalBody(t, body)
	assert.Equal(t, 0.2, got["temperature"])
	assert.Equal(t, 256.0, got["max_tokens"])
	assert.Equal(t, 0.9, got["top_p"])
	assert.Equal(t, []any{"END"}, got["stop"])
	assert.Equal(t, 0.5, got["frequency_penalty"])
	assert.Equal(t, -0.5, got["presence_penalty"])
	assert.Equal(t, map[string]any{"42": 10.0}, got["logit_bias"])
	assert.Equal(t, true, got["logprobs"])
	assert.Equal(t, 3.0, got["top_logprobs"])
	assert.Equal(t, 7.0, got["seed"])
	assert.Equal(t, "u-1", got["user"])
	assert.Equal(t, 2.0, got["n"])
	assert.NotContains(t, got, "response_format")
	assert.NotContains(t, got, "tools")
	assert.NotContains(t, got, "stream")
}

func TestBuildRequest_ZeroValuesSurvive(t *testing.T) {
	req := userRequest("hi")
	req.Config = &protocol.GenerationConfig{
		Temperature: protocol.Ptr(0.0),
		LogProbs:    protocol.Ptr(false),
		User:        protocol.Ptr(""),
	}

	body, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
	require.NoError(t, err)

	got := marshalBody(t, body)
	assert.Equal(t, 0.0, got["temperature"])
	assert.Equal(t, false, got["logprobs"])
	assert.Equal(t, "", got["user"])
}

func TestBuildRequest_Tools(t *testing.T) {
	req := userRequest("hi")
	req.Tools = []protocol.ToolDefinition{
		{Name: "lookup", InputSchema: map[string]any{"type": "object"}},
		{Name: "ping"},
	}

	body, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
	require.NoError(t, err)
	require.Len(t, body.Tools, 2)
	assert.Equal(t, "lookup", body.Tools[0].Function.Name)
	assert.Nil(t, body.Tools[1].Function.Parameters)
}

func TestBuildRequest_StructuredOutputGating(t *testing.T) {
	jsonRequest := func() *protocol.GenerateRequest {
		req := userRequest("hi")
		req.Output = &protocol.OutputConfig{Format: protocol.OutputJSON}
		return req
	}

	t.Run("allow-listed json", func(t *testing.T) {
		body, err := BuildRequest(registry.Default(), registry.PatientSeek, jsonRequest())
		require.NoError(t, err)
		require.NotNil(t, body.ResponseFormat)
		assert.Equal(t, "json_object", body.ResponseFormat.Type)
		assert.Nil(t, body.ResponseFormat.JSONSchema)
	})

	t.Run("allow-listed json with schema", func(t *testing.T) {
		req := jsonRequest()
		req.Output.Schema = map[string]any{"type": "object"}

		body, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
		require.NoError(t, err)

		got := marshalBody(t, body)
		assert.Equal(t, map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "output",
				"schema": map[string]any{"type": "object"},
				"strict": true,
			},
		}, got["response_format"])
	})

	t.Run("allow-listed text", func(t *testing.T) {
		req := userRequest("hi")
		req.Output = &protocol.OutputConfig{Format: protocol.OutputText}

		body, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
		require.NoError(t, err)
		require.NotNil(t, body.ResponseFormat)
		assert.Equal(t, "text", body.ResponseFormat.Type)
	})

	t.Run("not allow-listed is silently skipped", func(t *testing.T) {
		textOnly := registry.ModelReference{
			Name: "deepseek-chat",
			Info: protocol.ModelInfo{
				Label:    "DeepSeek Chat",
				Supports: protocol.ModelSupports{Output: []protocol.OutputFormat{protocol.OutputText}},
			},
		}
		reg := registry.New(textOnly)

		body, err := BuildRequest(reg, "deepseek-chat", jsonRequest())
		require.NoError(t, err)
		assert.NotContains(t, marshalBody(t, body), "response_format")
	})

	t.Run("allow-listed without json support fails", func(t *testing.T) {
		textOnly := registry.PatientSeekModel()
		textOnly.Info.Supports.Output = []protocol.OutputFormat{protocol.OutputText}
		reg := registry.New(textOnly)
		reg.AllowStructuredOutput(registry.PatientSeek)

		_, err := BuildRequest(reg, registry.PatientSeek, jsonRequest())
		var formatErr *providers.UnsupportedResponseFormatError
		require.True(t, errors.As(err, &formatErr))
		assert.Equal(t, "json", formatErr.Format)
	})

	t.Run("gating uses the wire model id", func(t *testing.T) {
		req := jsonRequest()
		req.Config = &protocol.GenerationConfig{Version: protocol.Ptr("other-deployment")}

		body, err := BuildRequest(registry.Default(), registry.PatientSeek, req)
		require.NoError(t, err)
		assert.Nil(t, body.ResponseFormat)
	})
}

func TestBuildRequest_NilRequest(t *testing.T) {
	body, err := BuildRequest(registry.Default(), registry.PatientSeek, nil)
	require.NoError(t, err)
	assert.Empty(t, body.Messages)
}
