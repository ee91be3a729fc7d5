package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"mercator-hq/patientseek/pkg/protocol"
)

// ChunkPrinter writes streamed fragments to a terminal as they arrive.
// Reasoning goes to its own writer so answers can be piped cleanly.
type ChunkPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	reasoning io.Writer
	wrote     bool
}

// NewChunkPrinter prints content to out and reasoning to reasoning. A nil
// reasoning writer drops reasoning.
func NewChunkPrinter(out, reasoning io.Writer) *ChunkPrinter {
	return &ChunkPrinter{out: out, reasoning: reasoning}
}

// Callback returns the streaming callback.
func (p *ChunkPrinter) Callback() protocol.StreamingCallback {
	return func(_ context.Context, chunk *protocol.GenerateResponseChunk) error {
		p.mu.Lock()
		defer p.mu.Unlock()

		for _, part := range chunk.Content {
			switch v := part.(type) {
			case protocol.TextPart:
				if _, err := io.WriteString(p.out, v.Text); err != nil {
					return fmt.Errorf("failed to write chunk: %w", err)
				}
				p.wrote = true
			case protocol.ReasoningPart:
				if p.reasoning == nil {
					continue
				}
				if _, err := io.WriteString(p.reasoning, v.Text); err != nil {
					return fmt.Errorf("failed to write reasoning: %w", err)
				}
			}
		}
		return nil
	}
}

// Finish terminates the printed answer with a newline if anything was
// written.
func (p *ChunkPrinter) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.wrote {
		return nil
	}
	_, err := io.WriteString(p.out, "\n")
	return err
}
