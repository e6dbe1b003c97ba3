package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/kbukum/whisper-srt/resilience"
	"github.com/kbukum/whisper-srt/server/middleware"
)

// Config is the "server" section.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// WriteTimeout must outlast the slowest synchronous transcription.
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxBodySize takes units, "100MB" or "512KB".
	MaxBodySize string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS        middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
	Compression CompressionConfig     `yaml:"compression" mapstructure:"compression"`
	RateLimit   RateLimitConfig       `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// CompressionConfig turns on gzip for responses of at least MinSize bytes.
// Level 0 means the gzip default.
type CompressionConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Level   int  `yaml:"level" mapstructure:"level"`
	MinSize int  `yaml:"min_size" mapstructure:"min_size"`
}

// RateLimitConfig keys a token bucket on the client IP.
type RateLimitConfig struct {
	Enabled                      bool `yaml:"enabled" mapstructure:"enabled"`
	resilience.RateLimiterConfig `yaml:",inline" mapstructure:",squash"`
}

var (
	defaultMethods = []string{"GET", "POST", "OPTIONS"}
	defaultHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key", "X-Request-Id"}
)

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	setDuration(&c.ReadTimeout, time.Minute)
	setDuration(&c.WriteTimeout, 15*time.Minute)
	setDuration(&c.IdleTimeout, 2*time.Minute)
	if c.MaxBodySize == "" {
		c.MaxBodySize = "100MB"
	}
	if c.CORS.AllowedOrigins == nil {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.CORS.AllowedMethods == nil {
		c.CORS.AllowedMethods = defaultMethods
	}
	if c.CORS.AllowedHeaders == nil {
		c.CORS.AllowedHeaders = defaultHeaders
	}
	if c.Compression.MinSize == 0 {
		c.Compression.MinSize = 1024
	}
	if c.RateLimit.Enabled {
		c.RateLimit.RateLimiterConfig.ApplyDefaults()
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	case c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.IdleTimeout < 0:
		return errors.New("server timeouts must be non-negative")
	case c.Compression.Level < -2 || c.Compression.Level > 9:
		return fmt.Errorf("server.compression.level must be between -2 and 9 (got: %d)", c.Compression.Level)
	}
	return nil
}
