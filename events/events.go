package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/whisper-srt/kafka"
	"github.com/kbukum/whisper-srt/logger"
)

// Type names a task lifecycle event.
type Type string

// Task lifecycle events.
const (
	TaskSubmitted Type = "task.submitted"
	TaskCompleted Type = "task.completed"
	TaskFailed    Type = "task.failed"
	TaskRejected  Type = "task.rejected"
)

// TaskEvent describes one step of a task's lifecycle.
type TaskEvent struct {
	Type       Type
	TaskID     string
	Language   string
	Format     string
	ResultPath string
	Error      string
	Duration   time.Duration
}

// Publisher emits task events. Implementations must not block the caller
// for long; event delivery never affects task outcome.
type Publisher interface {
	Publish(ctx context.Context, ev TaskEvent)
}

// Nop discards events.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, TaskEvent) {}

// EventWriter writes a Kafka envelope; producer.Publisher implements it.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// KafkaPublisher maps task events onto kafka.Event envelopes.
type KafkaPublisher struct {
	writer EventWriter
	source string
	log    *logger.Logger
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher tagging events with source.
func NewKafkaPublisher(w EventWriter, source string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		source: source,
		log:    log.WithComponent("events"),
		now:    time.Now,
	}
}

// Publish writes ev and logs delivery failures.
func (p *KafkaPublisher) Publish(ctx context.Context, ev TaskEvent) {
	envelope := kafka.Event{
		ID:          uuid.NewString(),
		Type:        string(ev.Type),
		Source:      p.source,
		ContentType: "application/json",
		Version:     "1.0",
		Timestamp:   p.now().UTC(),
		Subject:     ev.TaskID,
		Data:        data(ev),
	}
	if err := p.writer.Publish(ctx, envelope); err != nil {
		p.log.Warn("failed to publish task event", map[string]interface{}{
			logger.FieldTaskID: ev.TaskID,
			"event":            string(ev.Type),
			logger.FieldError:  err.Error(),
		})
	}
}

func data(ev TaskEvent) map[string]interface{} {
	d := map[string]interface{}{"task_id": ev.TaskID}
	if ev.Language != "" {
		d["language"] = ev.Language
	}
	if ev.Format != "" {
		d["format"] = ev.Format
	}
	if ev.ResultPath != "" {
		d["result_path"] = ev.ResultPath
	}
	if ev.Error != "" {
		d["error"] = ev.Error
	}
	if ev.Duration > 0 {
		d["duration_ms"] = ev.Duration.Milliseconds()
	}
	return d
}
