package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/patientseek/pkg/protocol"
	"mercator-hq/patientseek/pkg/providers"
)

// ChatClient is the transport seam the runner depends on: one round trip, or
// a chunk stream.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletion, error)
	StreamChatCompletion(ctx context.Context, req *ChatCompletionRequest) (StreamReader, error)
}

// StreamReader yields the chunks of one streamed completion.
type StreamReader interface {
	// Read returns the next chunk, or io.EOF once the stream ended normally.
	Read(ctx context.Context) (*ChatCompletionChunk, error)

	// Close releases the underlying connection.
	Close() error
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	transport *providers.HTTPTransport
	baseURL   string
	logger    *slog.Logger
}

var _ ChatClient = (*Client)(nil)

// NewClient creates a client over transport. Requests go to
// {BaseURL}/chat/completions.
func NewClient(transport *providers.HTTPTransport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport: transport,
		baseURL:   strings.TrimRight(transport.Config().BaseURL, "/"),
		logger:    logger,
	}
}

func (c *Client) endpoint() string {
	return c.baseURL + "/chat/completions"
}

// CreateChatCompletion performs a non-streaming completion.
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletion, error) {
	body := *req
	body.Stream = nil

	var resp ChatCompletion
	if err := c.transport.DoJSONRequest(ctx, "POST", c.endpoint(), &body, &resp, nil); err != nil {
		return nil, err
	}

	c.logger.Debug("chat completion received",
		"provider", c.transport.Name(),
		"model", resp.Model,
		"choices", len(resp.Choices),
	)
	return &resp, nil
}

// StreamChatCompletion starts a streaming completion. The caller must Close
// the returned reader.
func (c *Client) StreamChatCompletion(ctx context.Context, req *ChatCompletionRequest) (StreamReader, error) {
	body := *req
	body.Stream = protocol.Ptr(true)

	data, err := json.Marshal(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.transport.DoRequest(ctx, "POST", c.endpoint(), data, map[string]string{
		"Accept": "text/event-stream",
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("chat completion stream opened",
		"provider", c.transport.Name(),
		"model", req.Model,
	)
	return newStreamReader(c.transport.Name(), resp.Body), nil
}
