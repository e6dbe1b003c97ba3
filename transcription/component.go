package transcription

import (
	"context"
	"fmt"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/logger"
	"github.com/kbukum/whisper-srt/resilience"
)

// Component reports collaborator health. An unreachable backend degrades
// the service rather than failing it: tasks are still accepted and fail
// individually.
type Component struct {
	guarded *Guarded
	cfg     Config
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps a guarded provider.
func NewComponent(g *Guarded, cfg Config, log *logger.Logger) *Component {
	return &Component{guarded: g, cfg: cfg, log: log.WithComponent("transcription")}
}

// Name returns the component name.
func (c *Component) Name() string { return "transcription" }

// Start logs backend reachability without failing startup.
func (c *Component) Start(ctx context.Context) error {
	if !c.guarded.IsAvailable(ctx) {
		c.log.Warn("Transcription backend not reachable", logger.Fields(
			logger.FieldProvider, c.guarded.Name(),
			"url", c.cfg.URL,
		))
	}
	return nil
}

// Stop does nothing; providers hold no resources.
func (c *Component) Stop(context.Context) error { return nil }

// Health combines breaker state with a reachability probe.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	switch {
	case c.guarded.State() == resilience.StateOpen:
		h.Status = component.StatusDegraded
		h.Message = "circuit open"
	case !c.guarded.IsAvailable(ctx):
		h.Status = component.StatusDegraded
		h.Message = fmt.Sprintf("%s backend unreachable", c.guarded.Name())
	}
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Transcription",
		Type:    c.guarded.Name(),
		Details: fmt.Sprintf("%s model=%s", c.cfg.URL, c.cfg.Model),
	}
}
