package transcription

import (
	"context"
	"errors"
	"fmt"
)

// Provider is the speech-to-text collaborator.
type Provider interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// IsAvailable reports whether the backend is reachable.
	IsAvailable(ctx context.Context) bool
	// Transcribe turns an audio file into time-aligned segments.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}

// ErrRejectedAudio marks failures caused by the audio itself, such as
// undecodable bytes, as opposed to the backend being unavailable.
var ErrRejectedAudio = errors.New("audio rejected by transcription backend")

// ProviderError carries the backend's answer for a failed call.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap maps 4xx answers to ErrRejectedAudio.
func (e *ProviderError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return ErrRejectedAudio
	}
	return nil
}
