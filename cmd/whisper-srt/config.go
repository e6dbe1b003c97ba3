package main

import (
	"fmt"
	"time"

	"github.com/kbukum/whisper-srt/auth"
	"github.com/kbukum/whisper-srt/config"
	"github.com/kbukum/whisper-srt/kafka"
	"github.com/kbukum/whisper-srt/observability"
	"github.com/kbukum/whisper-srt/redis"
	"github.com/kbukum/whisper-srt/resilience"
	"github.com/kbukum/whisper-srt/server"
	"github.com/kbukum/whisper-srt/service"
	"github.com/kbukum/whisper-srt/storage"
	"github.com/kbukum/whisper-srt/transcription"
	"github.com/kbukum/whisper-srt/worker"
)

const serviceName = "whisper-srt"

// Task registry backends.
const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

// Config is the whisper-srt configuration file.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Server        server.Config               `mapstructure:"server"`
	Worker        worker.Config               `mapstructure:"worker"`
	Sync          resilience.BulkheadConfig   `mapstructure:"sync"`
	Transcription TranscriptionConfig         `mapstructure:"transcription"`
	Tasks         TasksConfig                 `mapstructure:"tasks"`
	Storage       storage.Config              `mapstructure:"storage"`
	Redis         redis.Config                `mapstructure:"redis"`
	Kafka         kafka.Config                `mapstructure:"kafka"`
	Auth          auth.Config                 `mapstructure:"auth"`
	Tracing       observability.TracingConfig `mapstructure:"tracing"`
	Metrics       observability.MetricsConfig `mapstructure:"metrics"`
	Uploads       service.Config              `mapstructure:"uploads"`
}

// TranscriptionConfig adds the circuit breaker around the backend.
type TranscriptionConfig struct {
	transcription.Config `mapstructure:",squash"`

	CircuitBreaker resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// TasksConfig selects the task registry.
type TasksConfig struct {
	// Backend is "memory" or "redis".
	Backend string `mapstructure:"backend"`
	// TTL expires resolved and pending records in Redis. 0 keeps them.
	TTL time.Duration `mapstructure:"ttl"`
	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Worker.ApplyDefaults()
	c.Sync.Name = "sync-transcribe"
	c.Sync.ApplyDefaults()
	c.Transcription.ApplyDefaults()
	c.Transcription.CircuitBreaker.Name = "transcription"
	c.Transcription.CircuitBreaker.ApplyDefaults()
	if c.Tasks.Backend == "" {
		c.Tasks.Backend = backendMemory
	}
	c.Storage.ApplyDefaults()
	if c.Tasks.Backend == backendRedis {
		c.Redis.ApplyDefaults()
	}
	if c.Kafka.Enabled {
		c.Kafka.ApplyDefaults()
	}
	c.Auth.ApplyDefaults()
	c.Tracing.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Uploads.ApplyDefaults()
}

type sectionCheck struct {
	section string
	fn      func() error
}

// Validate checks every section and names the first one that fails.
func (c *Config) Validate() error {
	checks := []sectionCheck{
		{"service", c.ServiceConfig.Validate},
		{"server", c.Server.Validate},
		{"worker", c.Worker.Validate},
		{"transcription", c.Transcription.Validate},
		{"tasks", c.Tasks.Validate},
		{"storage", c.Storage.Validate},
		{"auth", c.Auth.Validate},
		{"tracing", c.Tracing.Validate},
		{"metrics", c.Metrics.Validate},
		{"uploads", c.Uploads.Validate},
	}
	if c.Tasks.Backend == backendRedis {
		checks = append(checks, sectionCheck{"redis", c.Redis.Validate})
	}
	if c.Kafka.Enabled {
		checks = append(checks, sectionCheck{"kafka", c.Kafka.Validate})
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	return nil
}

// Validate checks the registry selection.
func (c *TasksConfig) Validate() error {
	switch c.Backend {
	case backendMemory, backendRedis:
	default:
		return fmt.Errorf("tasks.backend must be one of [memory, redis] (got: %s)", c.Backend)
	}
	if c.TTL < 0 {
		return fmt.Errorf("tasks.ttl must not be negative")
	}
	return nil
}
