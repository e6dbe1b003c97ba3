package transcription

import (
	"context"

	"github.com/kbukum/whisper-srt/resilience"
)

// Guarded wraps a Provider with a circuit breaker so a failing backend is
// not hammered with work that is bound to fail.
type Guarded struct {
	Provider
	breaker *resilience.CircuitBreaker
}

// NewGuarded wraps p. Requests rejected for their audio do not count as
// backend failures.
func NewGuarded(p Provider, cfg resilience.CircuitBreakerConfig) *Guarded {
	if cfg.Name == "" {
		cfg.Name = p.Name()
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = IsBackendFailure
	}
	return &Guarded{Provider: p, breaker: resilience.NewCircuitBreaker(cfg)}
}

// Transcribe runs the call through the breaker. Returns
// resilience.ErrCircuitOpen while the breaker is open.
func (g *Guarded) Transcribe(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := g.breaker.Execute(func() error {
		var err error
		resp, err = g.Provider.Transcribe(ctx, req)
		return err
	})
	return resp, err
}

// State exposes the breaker state for health reporting.
func (g *Guarded) State() resilience.State {
	return g.breaker.State()
}
