package kafka

import (
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Event is the JSON envelope every published message carries.
type Event struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source"`
	ContentType string         `json:"content_type"`
	Version     string         `json:"version"`
	Timestamp   time.Time      `json:"timestamp"`
	Subject     string         `json:"subject,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Key is the partition key: the subject, or the event id when there is none.
// Events about one task therefore stay in order on one partition.
func (e Event) Key() string {
	if e.Subject != "" {
		return e.Subject
	}
	return e.ID
}

// Message encodes e as a kafka-go message with routing headers.
func (e Event) Message() (kafkago.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, err
	}
	header := func(k, v string) kafkago.Header { return kafkago.Header{Key: k, Value: []byte(v)} }
	return kafkago.Message{
		Key:   []byte(e.Key()),
		Value: body,
		Time:  e.Timestamp,
		Headers: []kafkago.Header{
			header("event-id", e.ID),
			header("event-type", e.Type),
			header("event-source", e.Source),
			header("content-type", "application/json"),
		},
	}, nil
}
