package storage

import (
	"context"
	"fmt"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/logger"
)

// probeKey is looked up, never written, to check the backend answers.
const probeKey = ".health"

// Component exposes the result store to the registry. The backend is built
// in NewComponent so it can be injected before anything starts.
type Component struct {
	storage Storage
	cfg     Config
	log     *logger.Logger
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) (*Component, error) {
	cfg.ApplyDefaults()
	log = log.WithComponent("storage")
	s, err := New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}
	return &Component{storage: s, cfg: cfg, log: log}, nil
}

func (c *Component) Storage() Storage { return c.storage }

func (c *Component) Name() string { return "storage" }

// Start fails on a backend that cannot answer a lookup, so bad credentials
// or a missing bucket stop the boot.
func (c *Component) Start(ctx context.Context) error {
	if err := c.probe(ctx); err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.log.Info("Storage ready", map[string]interface{}{
		"provider": c.cfg.Provider,
		"location": c.cfg.Location(),
	})
	return nil
}

// Stop does nothing; neither backend holds connections open.
func (c *Component) Stop(context.Context) error { return nil }

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if err := c.probe(ctx); err != nil {
		h.Status = component.StatusUnhealthy
		h.Message = "health probe failed: " + err.Error()
	}
	return h
}

func (c *Component) probe(ctx context.Context) error {
	_, err := c.storage.Exists(ctx, probeKey)
	return err
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: fmt.Sprintf("provider=%s %s", c.cfg.Provider, c.cfg.Location()),
	}
}
