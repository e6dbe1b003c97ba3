package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/whisper-srt/kafka"
	"github.com/kbukum/whisper-srt/logger"
)

type recordingWriter struct {
	events []kafka.Event
	err    error
}

func (r *recordingWriter) Publish(_ context.Context, e kafka.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func TestKafkaPublisher_Envelope(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisher(w, "whisper-srt", logger.NewNop())
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	p.Publish(context.Background(), TaskEvent{
		Type:       TaskCompleted,
		TaskID:     "t-1",
		Format:     "srt",
		ResultPath: "t-1.srt",
		Duration:   1500 * time.Millisecond,
	})

	if len(w.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(w.events))
	}
	e := w.events[0]
	if e.Type != "task.completed" || e.Subject != "t-1" || e.Source != "whisper-srt" {
		t.Errorf("unexpected envelope %+v", e)
	}
	if e.ID == "" || !e.Timestamp.Equal(fixed) {
		t.Errorf("expected id and fixed timestamp, got %q %v", e.ID, e.Timestamp)
	}
	if e.Data["result_path"] != "t-1.srt" || e.Data["duration_ms"] != int64(1500) {
		t.Errorf("unexpected data %v", e.Data)
	}
	if _, ok := e.Data["error"]; ok {
		t.Error("empty fields must be omitted")
	}
}

func TestKafkaPublisher_SwallowsErrors(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	NewKafkaPublisher(w, "svc", logger.NewNop()).Publish(context.Background(), TaskEvent{Type: TaskFailed, TaskID: "x"})
	if len(w.events) != 1 {
		t.Error("expected publish attempt")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	p.Publish(context.Background(), TaskEvent{Type: TaskSubmitted})
}
