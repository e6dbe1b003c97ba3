package redis

import (
	"context"
	"fmt"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/logger"
)

const componentName = "redis"

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// Component ties a Client to the application lifecycle. The client exists
// from construction on, so the task store can be built before Start runs.
type Component struct {
	client *Client
	log    *logger.Logger
}

// NewComponent builds the client without connecting. Start pings it.
func NewComponent(cfg Config, log *logger.Logger) (*Component, error) {
	log = log.WithComponent(componentName)
	client, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Component{client: client, log: log}, nil
}

func (c *Component) Client() *Client { return c.client }

func (c *Component) Name() string { return componentName }

func (c *Component) Start(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("redis unreachable at %s: %w", c.client.cfg.Addr, err)
	}
	c.log.Info("Redis connected", map[string]interface{}{"addr": c.client.cfg.Addr})
	return nil
}

func (c *Component) Stop(context.Context) error {
	return c.client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: componentName, Status: component.StatusHealthy}
	if err := c.client.Ping(ctx); err != nil {
		h.Status = component.StatusUnhealthy
		h.Message = err.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	cfg := c.client.cfg
	return component.Description{
		Name:    "Redis",
		Type:    "redis",
		Details: fmt.Sprintf("%s/%d pool=%d", cfg.Addr, cfg.DB, cfg.PoolSize),
	}
}
