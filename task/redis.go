package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/whisper-srt/redis"
)

// DefaultKeyPrefix namespaces task keys in Redis.
const DefaultKeyPrefix = "whisper-srt:task"

// RedisStore keeps records as JSON values in Redis. Transitions run inside
// a WATCH transaction so concurrent resolvers of the same id cannot both win.
type RedisStore struct {
	records *redis.TypedStore[Record]
	opts    options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a registry on top of client. An empty prefix uses
// DefaultKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string, opts ...Option) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		records: redis.NewTypedStore[Record](client, prefix),
		opts:    buildOptions(opts),
	}
}

// Create registers a new processing record. SETNX guards against id reuse.
func (s *RedisStore) Create(ctx context.Context, opts CreateOptions) (*Record, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.opts.newID()
		if id == "" {
			continue
		}
		rec := newRecord(id, opts, s.opts.now())
		ok, err := s.records.Create(ctx, id, rec, s.opts.ttl)
		if err != nil {
			return nil, fmt.Errorf("create task: %w", err)
		}
		if ok {
			return rec, nil
		}
	}
	return nil, ErrIDExhausted
}

// Get returns the record stored under id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// SetResult resolves the record as completed.
func (s *RedisStore) SetResult(ctx context.Context, id, path string) error {
	return s.resolve(ctx, id, func(r *Record) error { return r.Complete(path, s.opts.now()) })
}

// SetFailed resolves the record as failed.
func (s *RedisStore) SetFailed(ctx context.Context, id, message string) error {
	return s.resolve(ctx, id, func(r *Record) error { return r.Fail(message, s.opts.now()) })
}

func (s *RedisStore) resolve(ctx context.Context, id string, fn func(*Record) error) error {
	_, err := s.records.Update(ctx, id, fn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.ErrKeyNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyResolved):
		return ErrAlreadyResolved
	default:
		return fmt.Errorf("resolve task %s: %w", id, err)
	}
}
