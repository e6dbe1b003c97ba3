package resilience

import (
	"context"
	"errors"
	"time"
)

var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig sizes a Bulkhead.
type BulkheadConfig struct {
	Name          string `mapstructure:"-"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	// MaxWait is how long a caller may queue for a slot. Zero rejects at once.
	MaxWait  time.Duration                `mapstructure:"max_wait"`
	OnReject func(name string, err error) `mapstructure:"-"`
}

func (c *BulkheadConfig) ApplyDefaults() {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 2
	}
}

// Bulkhead caps concurrent calls with a buffered channel of slots.
type Bulkhead struct {
	config BulkheadConfig
	slots  chan struct{}
}

func NewBulkhead(config BulkheadConfig) *Bulkhead {
	config.ApplyDefaults()
	return &Bulkhead{config: config, slots: make(chan struct{}, config.MaxConcurrent)}
}

// Execute holds a slot for the duration of fn.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Acquire waits for a slot and returns its release function. It fails with
// ErrBulkheadFull, ErrBulkheadTimeout or the context's error.
func (b *Bulkhead) Acquire(ctx context.Context) (func(), error) {
	if err := b.wait(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return nil, err
	}
	return func() { <-b.slots }, nil
}

func (b *Bulkhead) wait(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
		if b.config.MaxWait <= 0 {
			return ErrBulkheadFull
		}
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bulkhead) InUse() int { return len(b.slots) }

func (b *Bulkhead) MaxConcurrent() int { return b.config.MaxConcurrent }

// IsRejection reports whether err means no slot was free.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBulkheadFull) || errors.Is(err, ErrBulkheadTimeout)
}
