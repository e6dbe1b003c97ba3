package worker

import (
	"fmt"
	"time"
)

// Config sizes the pool.
type Config struct {
	// Workers is the number of jobs that run concurrently.
	Workers int `yaml:"workers" mapstructure:"workers"`
	// QueueSize is the number of accepted jobs that may wait for a worker.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size"`
	// JobTimeout bounds a single job. 0 disables the timeout.
	JobTimeout time.Duration `yaml:"job_timeout" mapstructure:"job_timeout"`
	// ShutdownTimeout bounds how long Stop waits for the backlog to drain.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.JobTimeout == 0 {
		c.JobTimeout = 30 * time.Minute
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 2 * time.Minute
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("worker.workers must be > 0")
	}
	if c.QueueSize < 0 {
		return fmt.Errorf("worker.queue_size must be >= 0")
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("worker.job_timeout must not be negative")
	}
	return nil
}
