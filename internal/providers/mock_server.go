package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// ChatCompletionsPath is the path OpenAI-compatible clients post to when the
// base URL is BaseURL().
const ChatCompletionsPath = "/v1/chat/completions"

// mockModel is the model id the canned chunks report.
const mockModel = "whyhow-ai/PatientSeek"

// MockServer is an OpenAI-compatible backend for tests. It serves one canned
// response per path, either a JSON body or an SSE stream, and records every
// request body it receives.
type MockServer struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  [][]byte
}

// MockResponse is the canned reply for one path. A response with
// StreamChunks is served as Server-Sent Events; otherwise Body is written
// with StatusCode (default 200).
type MockResponse struct {
	StatusCode int
	Headers    map[string]string

	// Body is written as is when it is a string or []byte and JSON-encoded
	// otherwise
	Body any

	// StreamChunks are sent as data lines, followed by [DONE] unless
	// OmitDone is set
	StreamChunks []string
	OmitDone     bool
}

// NewMockServer starts a mock backend. Call Close when done.
func NewMockServer() *MockServer {
	ms := &MockServer{responses: make(map[string]MockResponse)}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.serve))
	return ms
}

// BaseURL returns the API base URL clients should be configured with.
func (ms *MockServer) BaseURL() string {
	return ms.server.URL + "/v1"
}

// Close shuts the server down.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse installs the reply for path, replacing any previous one.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received on any path.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// LastRequest returns the decoded body of the most recent request, or nil.
func (ms *MockServer) LastRequest() map[string]any {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.requests) == 0 {
		return nil
	}
	var body map[string]any
	if err := json.Unmarshal(ms.requests[len(ms.requests)-1], &body); err != nil {
		return nil
	}
	return body
}

func (ms *MockServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, body)
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		writeEvents(w, response)
		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, v)
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeEvents streams the response chunks as Server-Sent Events, flushing
// after every event.
func writeEvents(w http.ResponseWriter, response MockResponse) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	for _, chunk := range response.StreamChunks {
		fmt.Fprintf(w, "data: %s\n\n", chunk)
		flusher.Flush()
	}
	if !response.OmitDone {
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// MockChatCompletion builds a completion with one text choice finished with
// stop and a reported usage of 10 prompt and 20 completion tokens.
func MockChatCompletion(content string, model string) map[string]any {
	return completion("chatcmpl-mock-text", model, map[string]any{
		"role":    "assistant",
		"content": content,
	}, "stop", map[string]any{
		"prompt_tokens":     10,
		"completion_tokens": 20,
		"total_tokens":      30,
	})
}

// MockToolCallCompletion builds a completion whose single choice calls one
// tool and finished with tool_calls. It reports no usage.
func MockToolCallCompletion(model, id, name, arguments string) map[string]any {
	return completion("chatcmpl-mock-tool", model, map[string]any{
		"role":    "assistant",
		"content": nil,
		"tool_calls": []map[string]any{{
			"id":   id,
			"type": "function",
			"function": map[string]any{
				"name":      name,
				"arguments": arguments,
			},
		}},
	}, "tool_calls", nil)
}

func completion(id, model string, message map[string]any, finishReason string, usage map[string]any) map[string]any {
	c := map[string]any{
		"id":      id,
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       message,
			"finish_reason": finishReason,
		}},
	}
	if usage != nil {
		c["usage"] = usage
	}
	return c
}

// MockStreamChunk builds a chunk carrying a content delta. An empty
// finishReason is sent as null.
func MockStreamChunk(delta string, finishReason string) string {
	return chunk(map[string]any{"content": delta}, finishReason)
}

// MockReasoningChunk builds a chunk carrying a reasoning_content delta.
func MockReasoningChunk(reasoning string) string {
	return chunk(map[string]any{"reasoning_content": reasoning}, "")
}

func chunk(delta map[string]any, finishReason string) string {
	var reason any
	if finishReason != "" {
		reason = finishReason
	}
	data, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-mock-stream",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   mockModel,
		"choices": []map[string]any{{
			"index":         0,
			"delta":         delta,
			"finish_reason": reason,
		}},
	})
	return string(data)
}

// MockErrorResponse builds an OpenAI-style error reply.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "invalid_request_error",
				"code":    statusCode,
			},
		},
	}
}

// MockAuthError builds a 401 reply.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// MockRateLimitError builds a 429 reply with a Retry-After header.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{"Retry-After": strconv.Itoa(retryAfter)}
	return response
}

// MockServerError builds a 500 reply.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}
