// Package openai translates between the normalized generate protocol and the
// OpenAI chat-completions wire format.
//
// # Requests
//
// BuildRequest resolves the model in a registry, validates the generation
// config, translates messages and tools and applies structured-output
// gating:
//
//	body, err := openai.BuildRequest(registry.Default(), "whyhow-ai/PatientSeek", req)
//	if err != nil {
//	    return err // nothing was sent
//	}
//
// Roles map user→user, model→assistant, system→system, tool→tool. An
// assistant message with tool requests is sent as tool calls only; its text
// parts are dropped. Each tool response becomes its own tool message.
//
// A response_format directive is only emitted for wire model ids on the
// registry's allow-list. For those, a format the model does not advertise
// fails with UnsupportedResponseFormatError; for every other model the
// directive is silently left out.
//
// Unset optional fields are pruned when the request is marshaled, so the
// payload never carries null.
//
// # Responses
//
// FromChoices converts finished choices into candidates. Finish reasons go
// through a fixed table (tool_calls and stop both normalize to stop, unknown
// codes to other). Tool-call arguments are decoded only when the choice
// finished with tool_calls.
//
// # Streaming
//
// StreamAggregator consumes a StreamReader, forwards reasoning and content
// fragments to the caller's callback in arrival order and synthesizes one
// ChatCompletion at the end. The synthesized completion goes through
// FromChoices like any other, so streaming and non-streaming calls produce
// the same candidate shape:
//
//	agg := openai.NewStreamAggregator(body.Model, cb, logger)
//	final, err := agg.Consume(ctx, reader)
//	if err != nil {
//	    return err
//	}
//	candidates, err := openai.FromChoices(final.Choices, false)
//
// Usage on the streaming path is always zero; the backend does not report it.
package openai
