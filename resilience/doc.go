// Package resilience guards the transcription collaborator and the HTTP
// surface.
//
//   - Bulkhead caps concurrent synchronous transcriptions.
//   - CircuitBreaker fails fast while the collaborator keeps failing.
//   - KeyedRateLimiter throttles clients per IP.
//
// Nothing here retries: a failed call is reported to the caller as is.
package resilience
