package redis

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/whisper-srt/logger"
)

// Sentinels re-exported so stores need not import go-redis themselves.
var (
	ErrNil      = goredis.Nil
	ErrTxFailed = goredis.TxFailedErr
)

// Client is the subset of go-redis the task store needs, plus logging and
// an idempotent Close.
type Client struct {
	rdb    *goredis.Client
	cfg    Config
	log    *logger.Logger
	closed atomic.Bool
}

// New validates cfg and builds a client. No connection is made until the
// first command.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}

	c := &Client{rdb: goredis.NewClient(cfg.options()), cfg: cfg, log: log}
	log.Info("Redis client created", map[string]interface{}{
		"addr":      cfg.Addr,
		"db":        cfg.DB,
		"pool_size": cfg.PoolSize,
	})
	return c, nil
}

func (c *Config) options() *goredis.Options {
	return &goredis.Options{
		Addr:            c.Addr,
		Password:        c.Password,
		DB:              c.DB,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		MaxRetries:      c.MaxRetries,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		PoolTimeout:     c.PoolTimeout,
		ConnMaxIdleTime: c.IdleTimeout,
	}
}

// Ping fails unless the server answers PONG.
func (c *Client) Ping(ctx context.Context) error {
	pong, err := c.rdb.Ping(ctx).Result()
	switch {
	case err != nil:
		return fmt.Errorf("redis ping failed: %w", err)
	case pong != "PONG":
		return fmt.Errorf("unexpected redis ping response: %s", pong)
	}
	return nil
}

// Get returns ErrNil for missing keys.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// SetNX writes only when key is absent and reports whether it did.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Watch runs fn in an optimistic transaction over keys. It fails with
// ErrTxFailed when another writer touched a key first.
func (c *Client) Watch(ctx context.Context, fn func(tx *goredis.Tx) error, keys ...string) error {
	return c.rdb.Watch(ctx, fn, keys...)
}

// IsAvailable is false once closed or while the server does not answer.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return !c.closed.Load() && c.rdb.Ping(ctx).Err() == nil
}

// Close releases the pool. Later calls are no-ops.
func (c *Client) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.log.Info("Closing Redis connection")
	return c.rdb.Close()
}
