package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"mercator-hq/patientseek/pkg/providers"
)

const maxSSELineSize = 1 << 20

// streamReader reads Server-Sent Events from a chat-completions stream.
type streamReader struct {
	provider string
	body     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool
}

func newStreamReader(provider string, body io.ReadCloser) *streamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineSize)
	return &streamReader{
		provider: provider,
		body:     body,
		scanner:  scanner,
	}
}

// Read returns the next chunk. It returns nil, io.EOF at [DONE] or when the
// body ends. A data line that does not decode yields a
// StreamChunkProcessingError and the reader stays usable.
func (s *streamReader) Read(ctx context.Context) (*ChatCompletionChunk, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				return nil, &providers.StreamTransportError{
					Provider: s.provider,
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()
		if line == "" || !strings.HasPrefix(line, "data:") {
			// Comments, event names and keep-alives
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return nil, io.EOF
		}

		if msg := gjson.Get(data, "error.message"); msg.Exists() {
			return nil, &providers.StreamTransportError{
				Provider: s.provider,
				Message:  msg.String(),
			}
		}

		var chunk ChatCompletionChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, &providers.StreamChunkProcessingError{
				Raw:   data,
				Cause: fmt.Errorf("failed to parse stream chunk: %w", err),
			}
		}
		return &chunk, nil
	}
}

// Close closes the stream and releases resources.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
