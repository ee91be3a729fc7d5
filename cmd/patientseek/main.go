// PatientSeek is a command-line client for the PatientSeek medical model and
// other models served behind an OpenAI-compatible chat-completions endpoint.
//
// Usage:
//
//	# One-shot question
//	patientseek generate "What are common causes of fatigue?"
//
//	# Stream the answer, with a system prompt
//	patientseek generate --stream --system "Answer briefly." "Explain ferritin."
//
//	# Ask for JSON output
//	patientseek generate --json "List three anemia symptoms as a JSON array."
//
//	# Interactive multi-turn session
//	patientseek chat --config patientseek.yaml
//
//	# List models
//	patientseek models
//
// Credentials come from PATIENT_SEEK_API_KEY, optionally loaded from a .env
// file with --env-file.
package main

func main() {
	Execute()
}
