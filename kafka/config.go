package kafka

import (
	"fmt"
	"time"
)

// DefaultTopic receives task lifecycle events.
const DefaultTopic = "whisper-srt.tasks"

// Config is the kafka section. Everything except Enabled is ignored while
// publishing is off.
type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`

	TLS  TLSConfig  `mapstructure:"tls"`
	SASL SASLConfig `mapstructure:"sasl"`

	// Compression is one of none, gzip, snappy, lz4 or zstd.
	Compression  string        `mapstructure:"compression"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	// Async hands messages to the writer without waiting for acks. Nil
	// means true.
	Async *bool `mapstructure:"async"`

	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	MetadataTTL time.Duration `mapstructure:"metadata_ttl"`
}

// TLSConfig enables TLS towards the brokers. CAFile and the client key pair
// are optional.
type TLSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	SkipVerify bool   `mapstructure:"skip_verify"`
	CAFile     string `mapstructure:"ca_file"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// SASLConfig enables SASL authentication.
type SASLConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Mechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512.
	Mechanism string `mapstructure:"mechanism"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.Compression == "" {
		c.Compression = "snappy"
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	setDuration(&c.BatchTimeout, time.Second)
	setDuration(&c.WriteTimeout, 10*time.Second)
	setDuration(&c.DialTimeout, 10*time.Second)
	setDuration(&c.IdleTimeout, 30*time.Second)
	setDuration(&c.MetadataTTL, 6*time.Second)
	if c.RequiredAcks == 0 {
		c.RequiredAcks = -1 // all in-sync replicas
	}
	if c.Async == nil {
		async := true
		c.Async = &async
	}
	if c.SASL.Enabled && c.SASL.Mechanism == "" {
		c.SASL.Mechanism = "PLAIN"
	}
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}

// Validate is a no-op while disabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0")
	}
	for name, d := range map[string]time.Duration{
		"batch_timeout": c.BatchTimeout,
		"write_timeout": c.WriteTimeout,
		"dial_timeout":  c.DialTimeout,
		"idle_timeout":  c.IdleTimeout,
		"metadata_ttl":  c.MetadataTTL,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative (got: %s)", name, d)
		}
	}
	return c.SASL.validate()
}

func (s SASLConfig) validate() error {
	if !s.Enabled {
		return nil
	}
	switch s.Mechanism {
	case "PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512":
	default:
		return fmt.Errorf("unsupported SASL mechanism: %s", s.Mechanism)
	}
	if s.Username == "" {
		return fmt.Errorf("SASL username is required")
	}
	return nil
}

// IsAsync reports whether the writer skips waiting for acks.
func (c *Config) IsAsync() bool {
	return c.Async == nil || *c.Async
}
