package kafka

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kbukum/whisper-srt/component"
	"github.com/kbukum/whisper-srt/logger"
)

// Component ties a producer's lifetime to the service. kafka-go connects
// lazily, so Start only flips the running flag and Stop flushes the
// producer.
type Component struct {
	cfg Config
	log *logger.Logger

	mu       sync.Mutex
	producer io.Closer
	running  bool
}

var _ component.Component = (*Component)(nil)

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("kafka")}
}

// SetProducer hands the producer to the component, which closes it on Stop.
func (c *Component) SetProducer(p io.Closer) {
	c.mu.Lock()
	c.producer = p
	c.mu.Unlock()
}

func (c *Component) Name() string { return "kafka" }

func (c *Component) Start(context.Context) error {
	c.mu.Lock()
	c.running = true
	c.mu.Unlock()
	c.log.Info("Kafka component started", map[string]interface{}{"topic": c.cfg.Topic})
	return nil
}

func (c *Component) Stop(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return nil
	}
	c.running = false

	p := c.producer
	c.producer = nil
	if p == nil {
		return nil
	}
	c.log.Info("Flushing kafka producer")
	return p.Close()
}

// Health dials the first broker. Events are advisory, so an unreachable
// broker degrades the service instead of failing it.
func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !running {
		h.Status, h.Message = component.StatusUnhealthy, "kafka not started"
		return h
	}
	dialer, err := CreateDialer(&c.cfg)
	if err != nil {
		h.Status, h.Message = component.StatusUnhealthy, "dialer: "+err.Error()
		return h
	}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Brokers[0])
	if err != nil {
		h.Status, h.Message = component.StatusDegraded, "broker unreachable: "+err.Error()
		return h
	}
	conn.Close()
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Kafka",
		Type:    "kafka",
		Details: fmt.Sprintf("%s topic=%s", strings.Join(c.cfg.Brokers, ","), c.cfg.Topic),
	}
}
