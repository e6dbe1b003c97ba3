package main

import (
	"fmt"

	"github.com/kbukum/whisper-srt/transcription"
	"github.com/kbukum/whisper-srt/transcription/openai"
	"github.com/kbukum/whisper-srt/transcription/whisper"
)

// newProvider builds the configured backend wrapped in its circuit breaker.
func newProvider(cfg TranscriptionConfig) (*transcription.Guarded, error) {
	var p transcription.Provider
	switch cfg.Provider {
	case transcription.BackendWhisper:
		p = whisper.FromConfig(cfg.Config)
	case transcription.BackendOpenAI:
		p = openai.NewProvider(cfg.Config)
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
	return transcription.NewGuarded(p, cfg.CircuitBreaker), nil
}
