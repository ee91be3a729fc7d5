// Package metrics records Prometheus metrics for generate calls.
//
// # Metrics
//
//	<ns>_generate_requests_total{model,mode}        counter
//	<ns>_generate_errors_total{model,error_type}    counter
//	<ns>_generate_duration_seconds{model,mode}      histogram
//	<ns>_stream_chunks_total{model,channel}         counter
//	<ns>_stream_chunk_errors_total{model}           counter
//	<ns>_tokens_total{model,direction}              counter
//
// mode is "unary" or "stream", channel is "content" or "reasoning" and
// direction is "input" or "output". The namespace defaults to "patientseek".
//
// Streaming calls report zero tokens; the backend does not send usage on
// the streaming path.
package metrics
