// Package protocol defines the normalized, backend-agnostic generate protocol.
//
// Callers build a GenerateRequest from messages whose content is an ordered
// list of typed parts (text, tool requests, tool responses, structured data
// and reasoning), and receive a GenerateResponseData holding one
// CandidateData per completion alternative.
//
// # Parts
//
// Part is a closed sum type. Translators switch over the concrete part types
// exhaustively:
//
//	for _, p := range msg.Content {
//	    switch p := p.(type) {
//	    case protocol.TextPart:
//	    case protocol.ToolRequestPart:
//	    case protocol.ToolResponsePart:
//	    case protocol.DataPart:
//	    case protocol.ReasoningPart:
//	    }
//	}
//
// # Streaming
//
// A StreamingCallback receives GenerateResponseChunk values in arrival order.
// Reasoning fragments arrive as ReasoningPart and answer fragments as
// TextPart, so callers can render the two channels differently.
package protocol
