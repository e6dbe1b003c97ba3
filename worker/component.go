package worker

import (
	"context"
	"fmt"

	"github.com/kbukum/whisper-srt/component"
)

// Component runs a Pool under the component lifecycle. Stop drains the
// backlog within the configured ShutdownTimeout.
type Component struct {
	pool *Pool
}

var _ component.Component = (*Component)(nil)

// NewComponent wraps p.
func NewComponent(p *Pool) *Component {
	return &Component{pool: p}
}

// Pool returns the wrapped pool.
func (c *Component) Pool() *Pool { return c.pool }

// Name returns the component name.
func (c *Component) Name() string { return "worker-pool" }

// Start launches the workers.
func (c *Component) Start(_ context.Context) error {
	c.pool.Start()
	return nil
}

// Stop drains the pool.
func (c *Component) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.pool.cfg.ShutdownTimeout)
	defer cancel()
	return c.pool.Stop(ctx)
}

// Health reports degraded while the backlog is full.
func (c *Component) Health(_ context.Context) component.Health {
	s := c.pool.Stats()
	h := component.Health{
		Name:    c.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("busy=%d/%d queued=%d/%d", s.Busy, s.Workers, s.Queued, s.QueueSize),
	}
	if s.QueueSize > 0 && s.Queued >= s.QueueSize {
		h.Status = component.StatusDegraded
	}
	return h
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Worker Pool",
		Type:    "worker",
		Details: fmt.Sprintf("workers=%d queue=%d", c.pool.cfg.Workers, c.pool.cfg.QueueSize),
	}
}
