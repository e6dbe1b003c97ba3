package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store is the task registry.
type Store interface {
	// Create registers a new processing record under a fresh id.
	Create(ctx context.Context, opts CreateOptions) (*Record, error)
	// Get returns a copy of the record, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// SetResult resolves the record as completed.
	SetResult(ctx context.Context, id, path string) error
	// SetFailed resolves the record as failed.
	SetFailed(ctx context.Context, id, message string) error
}

// ErrIDExhausted is returned when the id generator keeps producing ids that
// are already registered.
var ErrIDExhausted = errors.New("task: could not allocate a unique id")

const maxIDAttempts = 8

// IDFunc generates task ids.
type IDFunc func() string

// options shared by the store implementations.
type options struct {
	newID IDFunc
	now   func() time.Time
	ttl   time.Duration
}

// Option configures a Store.
type Option func(*options)

// WithIDFunc overrides the id generator (UUIDv4 by default).
func WithIDFunc(fn IDFunc) Option {
	return func(o *options) { o.newID = fn }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTTL sets an expiry on records. Only RedisStore honors it; zero keeps
// records forever.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

func buildOptions(opts []Option) options {
	o := options{newID: uuid.NewString, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
