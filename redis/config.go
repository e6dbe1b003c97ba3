package redis

import (
	"fmt"
	"time"
)

// Config is the redis section of the service config. Durations accept
// strings such as "5s" or "500ms".
type Config struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
	MaxRetries   int `mapstructure:"max_retries"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 2
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate runs after ApplyDefaults.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("redis addr is required")
	case c.DB < 0:
		return fmt.Errorf("redis db must be >= 0 (got: %d)", c.DB)
	case c.PoolSize <= 0:
		return fmt.Errorf("pool_size must be > 0")
	case c.PoolTimeout < 0 || c.IdleTimeout < 0:
		return fmt.Errorf("pool_timeout and idle_timeout must not be negative")
	}
	return nil
}
