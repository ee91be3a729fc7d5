package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageText(t *testing.T) {
	msg := Message{
		Role: RoleUser,
		Content: []Part{
			TextPart{Text: "hello "},
			ToolRequestPart{Name: "lookup"},
			TextPart{Text: "world"},
			ReasoningPart{Text: "ignored"},
		},
	}

	assert.Equal(t, "hello world", msg.Text())
	assert.Equal(t, "ignored", ReasoningOf(msg.Content))
}

func TestMessageToolParts(t *testing.T) {
	msg := Message{
		Role: RoleTool,
		Content: []Part{
			ToolResponsePart{Ref: "a", Output: "1"},
			TextPart{Text: "noise"},
			ToolResponsePart{Ref: "b", Output: "2"},
		},
	}

	responses := msg.ToolResponses()
	require.Len(t, responses, 2)
	assert.Equal(t, "a", responses[0].Ref)
	assert.Equal(t, "b", responses[1].Ref)
	assert.Empty(t, msg.ToolRequests())
}

func TestPartKinds(t *testing.T) {
	tests := []struct {
		part Part
		want PartKind
	}{
		{TextPart{}, KindText},
		{ToolRequestPart{}, KindToolRequest},
		{ToolResponsePart{}, KindToolResponse},
		{DataPart{}, KindData},
		{ReasoningPart{}, KindReasoning},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.part.Kind())
		})
	}
}

func TestModelInfoSupportsOutput(t *testing.T) {
	info := ModelInfo{Supports: ModelSupports{Output: []OutputFormat{OutputText}}}

	assert.True(t, info.SupportsOutput(OutputText))
	assert.False(t, info.SupportsOutput(OutputJSON))
}

func TestGenerateRequestOutputFormat(t *testing.T) {
	var nilReq *GenerateRequest
	assert.Empty(t, nilReq.OutputFormat(), "nil request has no format")

	req := &GenerateRequest{Output: &OutputConfig{Format: OutputJSON}}
	assert.Equal(t, OutputJSON, req.OutputFormat())
}

func TestResponseText(t *testing.T) {
	var nilResp *GenerateResponseData
	assert.Empty(t, nilResp.Text(), "nil response has no text")

	resp := &GenerateResponseData{
		Candidates: []CandidateData{
			{Message: CandidateMessage{Role: RoleModel, Content: []Part{TextPart{Text: "first"}}}},
			{Message: CandidateMessage{Role: RoleModel, Content: []Part{TextPart{Text: "second"}}}},
		},
	}
	assert.Equal(t, "first", resp.Text())
}
