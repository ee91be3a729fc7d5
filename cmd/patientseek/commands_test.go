package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "mercator-hq/patientseek/internal/providers"
	"mercator-hq/patientseek/pkg/config"
	"mercator-hq/patientseek/pkg/deepseek"
	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/registry"
	"mercator-hq/patientseek/pkg/telemetry/metrics"
)

// runCLI executes the command tree against mock and returns stdout.
func runCLI(t *testing.T, mock *testhelpers.MockServer, stdin string, args ...string) (string, error) {
	t.Helper()

	t.Setenv(config.EnvAPIURL, mock.BaseURL())
	t.Setenv(config.EnvAPIKey, "test-key")
	t.Setenv(config.EnvMaxRetries, "0")
	t.Setenv(config.EnvLogLevel, "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGenerate_Text(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.ChatCompletionsPath, testhelpers.MockResponse{
		Body: testhelpers.MockChatCompletion("Hello, world!", registry.PatientSeek),
	})

	out, err := runCLI(t, mock, "", "generate", "--system", "Be brief.", "--temperature", "0.3", "Say", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!\n", out)

	body := mock.LastRequest()
	messages, _ := body["messages"].([]any)
	require.Len(t, messages, 2, "expected system and user messages")
	user, _ := messages[1].(map[string]any)
	assert.Equal(t, "Say hello", user["content"], "positional args are joined")
	assert.Equal(t, 0.3, body["temperature"])
}

func TestGenerate_Stream(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.ChatCompletionsPath, testhelpers.MockResponse{
		StreamChunks: []string{
			testhelpers.MockReasoningChunk("hmm"),
			testhelpers.MockStreamChunk("Low ", ""),
			testhelpers.MockStreamChunk("ferritin.", "stop"),
		},
	})

	out, err := runCLI(t, mock, "", "generate", "--stream", "--prompt", "Why tired?")
	require.NoError(t, err)
	assert.Equal(t, "Low ferritin.\n", out)
	assert.Equal(t, true, mock.LastRequest()["stream"])
}

func TestGenerate_OutputJSON(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.ChatCompletionsPath, testhelpers.MockResponse{
		Body: testhelpers.MockChatCompletion(`{"ok":true}`, registry.PatientSeek),
	})

	out, err := runCLI(t, mock, "", "generate", "--json", "--output", "json", "status?")
	require.NoError(t, err)

	var decoded struct {
		Candidates []struct {
			Message struct {
				Content []map[string]any `json:"content"`
			} `json:"message"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded), "output is not JSON:\n%s", out)
	require.Len(t, decoded.Candidates, 1)
	require.NotEmpty(t, decoded.Candidates[0].Message.Content)
	assert.NotNil(t, decoded.Candidates[0].Message.Content[0]["data"], "expected a data part")

	format, _ := mock.LastRequest()["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
}

func TestGenerate_Errors(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.ChatCompletionsPath, testhelpers.MockAuthError())

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no prompt", []string{"generate"}, "a prompt is required"},
		{"unknown model", []string{"generate", "--model", "nope", "hi"}, "unsupported model"},
		{"unknown model hint", []string{"generate", "--model", "nope", "hi"}, "run 'patientseek models'"},
		{"schema without json", []string{"generate", "--schema", "x.json", "hi"}, "--schema requires --json"},
		{"bad output", []string{"generate", "--output", "xml", "hi"}, "unknown output format"},
		{"auth", []string{"generate", "hi"}, "authentication failed"},
		{"auth hint", []string{"generate", "hi"}, "(check PATIENT_SEEK_API_KEY)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, mock, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestModels(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	cfgPath := writeFile(t, "patientseek.yaml", `
models:
  - name: "custom/model"
    info:
      label: "Custom Model"
      supports:
        output: [text]
`)

	out, err := runCLI(t, mock, "", "models", "--config", cfgPath)
	require.NoError(t, err)

	for _, want := range []string{"deepseek/whyhow-ai/PatientSeek", "Whyhow - PatientSeek", "text,json", "deepseek/custom/model", "Custom Model"} {
		assert.Contains(t, out, want)
	}
}

func TestChat(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse(testhelpers.ChatCompletionsPath, testhelpers.MockResponse{
		StreamChunks: []string{testhelpers.MockStreamChunk("Noted.", "stop")},
	})

	out, err := runCLI(t, mock, "first\nsecond\n/reset\n/exit\n", "chat", "--system", "You are a nurse.")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "Noted."), "expected two answers, got:\n%s", out)
	assert.Contains(t, out, "conversation cleared")
	require.Equal(t, 2, mock.GetRequestCount())

	// system, user, model, user
	messages, _ := mock.LastRequest()["messages"].([]any)
	require.Len(t, messages, 4, "history is sent")
	prior, _ := messages[2].(map[string]any)
	assert.Equal(t, "assistant", prior["role"])
	assert.Equal(t, "Noted.", prior["content"])
}

func TestRedefineModels(t *testing.T) {
	a := &app{logger: quietLogger()}
	plugin, err := deepseek.New(deepseek.Options{Client: nopClient{}, Logger: a.logger})
	require.NoError(t, err)

	a.redefineModels(plugin, &config.Config{Models: []config.ModelConfig{{
		Name:             "late/model",
		Info:             protocol.ModelInfo{Label: "Late"},
		StructuredOutput: true,
	}}})

	_, err = plugin.Model("late/model")
	assert.NoError(t, err, "reloaded model should be defined")
	assert.True(t, plugin.Registry().AllowsStructuredOutput("late/model"))
}

func TestServeMetrics(t *testing.T) {
	cfg := config.NewDefaultConfig()
	a := &app{cfg: cfg, logger: quietLogger()}
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
	collector.RecordRequest(registry.PatientSeek, metrics.ModeUnary, time.Second)

	addr, shutdown, err := a.serveMetrics("127.0.0.1:0", collector)
	require.NoError(t, err)
	defer shutdown()

	resp, err := http.Get("http://" + addr.String() + cfg.Telemetry.Metrics.Path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "patientseek_generate_requests_total")
}
