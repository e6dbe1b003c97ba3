package producer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/whisper-srt/kafka"
	"github.com/kbukum/whisper-srt/logger"
)

// ErrClosed is returned by WriteMessages after Close.
var ErrClosed = errors.New("kafka producer is closed")

// Producer owns the kafka-go Writer for the task event topic.
type Producer struct {
	writer *kafkago.Writer
	log    *logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewProducer validates cfg and builds the writer. kafka-go dials lazily,
// so no broker has to be up yet.
func NewProducer(cfg kafka.Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if !cfg.Enabled {
		return nil, errors.New("kafka is disabled")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	transport, err := kafka.CreateTransport(&cfg)
	if err != nil {
		return nil, err
	}

	p := &Producer{log: log.WithComponent("kafka.producer")}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Transport:    transport,
		Balancer:     &kafkago.Hash{},
		MaxAttempts:  cfg.MaxAttempts,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:  kafka.ResolveCompression(cfg.Compression),
		Async:        cfg.IsAsync(),
		Completion:   p.completed,
		ErrorLogger: kafkago.LoggerFunc(func(format string, args ...interface{}) {
			p.log.Error(fmt.Sprintf(format, args...))
		}),
	}
	p.log.Info("Kafka producer ready", map[string]interface{}{
		"topic": cfg.Topic,
		"async": cfg.IsAsync(),
	})
	return p, nil
}

// completed reports batches lost in async mode, where WriteMessages
// returns before delivery.
func (p *Producer) completed(msgs []kafkago.Message, err error) {
	if err != nil {
		p.log.Warn("Kafka batch dropped", map[string]interface{}{"messages": len(msgs), "error": err.Error()})
	}
}

func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close flushes buffered messages. Later calls do nothing.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
