package main

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"github.com/kbukum/whisper-srt/auth"
	"github.com/kbukum/whisper-srt/auth/jwt"
	"github.com/kbukum/whisper-srt/bootstrap"
	"github.com/kbukum/whisper-srt/logger"
	"github.com/kbukum/whisper-srt/transcription"
	"github.com/kbukum/whisper-srt/transcription/openai"
	"github.com/kbukum/whisper-srt/transcription/whisper"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	cfg.Storage.Local.Path = t.TempDir()
	cfg.Uploads.UploadDir = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, cfg *Config) *bootstrap.App[*Config] {
	t.Helper()
	app, err := bootstrap.NewApp(cfg, bootstrap.WithLogger(logger.NewNop()), bootstrap.WithSummaryWriter(io.Discard))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Name != serviceName {
		t.Errorf("expected name %s, got %q", serviceName, cfg.Name)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("expected port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Tasks.Backend != backendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Tasks.Backend)
	}
	if cfg.Transcription.Provider != transcription.BackendWhisper {
		t.Errorf("expected whisper provider, got %q", cfg.Transcription.Provider)
	}
	if cfg.Uploads.DefaultLanguage != "en" {
		t.Errorf("expected default language en, got %q", cfg.Uploads.DefaultLanguage)
	}
}

func TestConfig_ValidateNamesSection(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		section string
	}{
		{"tasks backend", func(c *Config) { c.Tasks.Backend = "sqlite" }, "tasks:"},
		{"openai without key", func(c *Config) { c.Transcription.Provider = transcription.BackendOpenAI }, "transcription:"},
		{"auth without mechanism", func(c *Config) { c.Auth = auth.Config{Enabled: true} }, "auth:"},
		{"bad language", func(c *Config) { c.Uploads.DefaultLanguage = "english!" }, "uploads:"},
		{"bad redis db", func(c *Config) {
			c.Tasks.Backend = backendRedis
			c.Redis.DB = -1
		}, "redis:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.HasPrefix(err.Error(), tt.section) {
				t.Errorf("expected error for %s, got %v", tt.section, err)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	cfg := TranscriptionConfig{}
	cfg.ApplyDefaults()
	g, err := newProvider(cfg)
	if err != nil {
		t.Fatalf("newProvider failed: %v", err)
	}
	if g.Name() != whisper.ProviderName {
		t.Errorf("expected whisper, got %s", g.Name())
	}

	cfg.Provider = transcription.BackendOpenAI
	cfg.APIKey = "sk-test"
	g, err = newProvider(cfg)
	if err != nil {
		t.Fatalf("newProvider failed: %v", err)
	}
	if g.Name() != openai.ProviderName {
		t.Errorf("expected openai, got %s", g.Name())
	}

	cfg.Provider = "vosk"
	if _, err := newProvider(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestWire_RegistersComponentsInOrder(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	if err := wire(app); err != nil {
		t.Fatalf("wire failed: %v", err)
	}

	var names []string
	for _, c := range app.Components.All() {
		names = append(names, c.Name())
	}
	got := strings.Join(names, ",")
	want := "telemetry,storage,transcription,worker-pool,http-server"
	if got != want {
		t.Errorf("expected components %s, got %s", want, got)
	}
}

func TestWire_OptionalBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tasks.Backend = backendRedis
	cfg.Redis.Addr = miniredis.RunT(t).Addr()
	cfg.Kafka.Enabled = true
	cfg.Auth = auth.Config{
		Enabled: true,
		JWT:     &jwt.Config{Secret: strings.Repeat("s", 32)},
	}
	app := newTestApp(t, cfg)
	if err := wire(app); err != nil {
		t.Fatalf("wire failed: %v", err)
	}
	for _, name := range []string{"redis", "kafka"} {
		c := app.Components.Get(name)
		if c == nil {
			t.Fatalf("expected %s component to be registered", name)
		}
		t.Cleanup(func() { c.Stop(context.Background()) })
	}
}

func TestEventsSetting(t *testing.T) {
	cfg := &Config{}
	if got := eventsSetting(cfg.Kafka); got != "disabled" {
		t.Errorf("expected disabled, got %q", got)
	}
	cfg.Kafka.Enabled = true
	cfg.Kafka.ApplyDefaults()
	if got := eventsSetting(cfg.Kafka); got != "kafka topic=whisper-srt.tasks" {
		t.Errorf("unexpected setting %q", got)
	}
}
