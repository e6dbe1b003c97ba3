package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kbukum/whisper-srt/logger"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Enabled: true}
	cfg.ApplyDefaults()

	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != "localhost:9092" {
		t.Errorf("Brokers = %v, want [localhost:9092]", cfg.Brokers)
	}
	if cfg.Topic != DefaultTopic {
		t.Errorf("Topic = %q, want %q", cfg.Topic, DefaultTopic)
	}
	if cfg.Compression != "snappy" {
		t.Errorf("Compression = %q, want snappy", cfg.Compression)
	}
	if cfg.RequiredAcks != -1 {
		t.Errorf("RequiredAcks = %d, want -1", cfg.RequiredAcks)
	}
	if !cfg.IsAsync() {
		t.Error("expected async writer by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled skips checks", func(c *Config) { c.Enabled = false; c.BatchTimeout = -time.Second }, false},
		{"negative duration", func(c *Config) { c.BatchTimeout = -time.Second }, true},
		{"bad sasl", func(c *Config) { c.SASL = SASLConfig{Enabled: true, Mechanism: "GSSAPI", Username: "u"} }, true},
		{"sasl without user", func(c *Config) { c.SASL = SASLConfig{Enabled: true, Mechanism: "PLAIN"} }, true},
		{"scram", func(c *Config) { c.SASL = SASLConfig{Enabled: true, Mechanism: "SCRAM-SHA-512", Username: "u"} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Enabled: true}
			cfg.ApplyDefaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveCompression(t *testing.T) {
	tests := map[string]kafka.Compression{
		"gzip":    kafka.Gzip,
		"lz4":     kafka.Lz4,
		"zstd":    kafka.Zstd,
		"snappy":  kafka.Snappy,
		"none":    0,
		"unknown": kafka.Snappy,
	}
	for name, want := range tests {
		if got := ResolveCompression(name); got != want {
			t.Errorf("ResolveCompression(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestCreateTransport_SASL(t *testing.T) {
	cfg := Config{Enabled: true, SASL: SASLConfig{Enabled: true, Username: "u", Password: "p"}}
	cfg.ApplyDefaults()
	tr, err := CreateTransport(&cfg)
	if err != nil {
		t.Fatalf("CreateTransport failed: %v", err)
	}
	if tr.SASL == nil || tr.SASL.Name() != "PLAIN" {
		t.Errorf("expected PLAIN mechanism, got %v", tr.SASL)
	}
	if tr.TLS != nil {
		t.Error("TLS must stay off unless enabled")
	}
}

func TestCreateTransport_MissingCA(t *testing.T) {
	cfg := Config{TLS: TLSConfig{Enabled: true, CAFile: "/does/not/exist.pem"}}
	if _, err := CreateTransport(&cfg); err == nil {
		t.Error("expected error for missing CA file")
	}
}

type closer struct{ closed bool }

func (c *closer) Close() error { c.closed = true; return nil }

func TestComponent_Lifecycle(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Brokers: []string{"127.0.0.1:1"}, DialTimeout: 50 * time.Millisecond}, logger.NewNop())
	p := &closer{}
	c.SetProducer(p)

	ctx := context.Background()
	if h := c.Health(ctx); h.Status != "unhealthy" {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if h := c.Health(ctx); h.Status != "degraded" {
		t.Errorf("expected degraded with unreachable broker, got %s", h.Status)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !p.closed {
		t.Error("expected producer to be closed on Stop")
	}
	if err := c.Stop(ctx); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
}

func TestEvent_Message(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := Event{ID: "evt-1", Type: "task.failed", Subject: "task-7", Timestamp: ts}.Message()
	if err != nil {
		t.Fatalf("Message failed: %v", err)
	}
	if string(msg.Key) != "task-7" || !msg.Time.Equal(ts) {
		t.Errorf("unexpected message key=%q time=%v", msg.Key, msg.Time)
	}
	if len(msg.Headers) != 4 || msg.Headers[1].Key != "event-type" || string(msg.Headers[1].Value) != "task.failed" {
		t.Errorf("unexpected headers %v", msg.Headers)
	}
	if got := (Event{ID: "evt-2"}).Key(); got != "evt-2" {
		t.Errorf("expected key to fall back to id, got %q", got)
	}
}
