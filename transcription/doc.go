// Package transcription defines the speech-to-text collaborator the service
// delegates to.
//
// Backends:
//
//   - transcription/whisper: a Whisper HTTP sidecar
//   - transcription/openai: the OpenAI audio transcription API
//
// Both return time-aligned segments that the subtitle package renders.
// Guarded adds a circuit breaker in front of any backend.
package transcription
