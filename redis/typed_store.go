package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Update gives up after this many lost WATCH races.
const maxUpdateAttempts = 16

// ErrKeyNotFound is returned by Update when the key does not exist.
var ErrKeyNotFound = errors.New("redis: key not found")

// TypedStore keeps values of type C as JSON under "<prefix>:<key>".
type TypedStore[C any] struct {
	client *Client
	prefix string
}

func NewTypedStore[C any](client *Client, prefix string) *TypedStore[C] {
	return &TypedStore[C]{client: client, prefix: prefix}
}

// Key maps key to its Redis name. An empty prefix leaves it unchanged.
func (s *TypedStore[C]) Key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

// Load returns nil and no error when the key is absent.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.Key(key))
	switch {
	case errors.Is(err, ErrNil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", s.Key(key), err)
	}
	return decode[C](key, raw)
}

// Save overwrites key. A zero ttl keeps the value forever.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := encode(key, val)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.Key(key), data, ttl); err != nil {
		return fmt.Errorf("save %s: %w", s.Key(key), err)
	}
	return nil
}

// Create writes val only when key is free and reports whether it did.
func (s *TypedStore[C]) Create(ctx context.Context, key string, val *C, ttl time.Duration) (bool, error) {
	data, err := encode(key, val)
	if err != nil {
		return false, err
	}
	ok, err := s.client.SetNX(ctx, s.Key(key), data, ttl)
	if err != nil {
		return false, fmt.Errorf("create %s: %w", s.Key(key), err)
	}
	return ok, nil
}

// Update loads the value, applies fn and writes it back inside a WATCH
// transaction, retrying when another writer changed the key in between.
// An error from fn aborts the update and is returned unchanged. The
// remaining TTL of the key is preserved.
func (s *TypedStore[C]) Update(ctx context.Context, key string, fn func(*C) error) (*C, error) {
	full := s.Key(key)
	var result *C

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, full).Result()
		switch {
		case errors.Is(err, ErrNil):
			return ErrKeyNotFound
		case err != nil:
			return err
		}
		val, err := decode[C](key, raw)
		if err != nil {
			return err
		}
		if err := fn(val); err != nil {
			return err
		}
		data, err := encode(key, val)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.SetArgs(ctx, full, data, goredis.SetArgs{KeepTTL: true})
			return nil
		})
		if err == nil {
			result = val
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		switch err := s.client.Watch(ctx, txf, full); {
		case errors.Is(err, ErrTxFailed):
			continue
		case err != nil:
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update %s: %w", full, ErrTxFailed)
}

func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.Key(key)); err != nil {
		return fmt.Errorf("delete %s: %w", s.Key(key), err)
	}
	return nil
}

func encode[C any](key string, val *C) ([]byte, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

func decode[C any](key, raw string) (*C, error) {
	val := new(C)
	if err := json.Unmarshal([]byte(raw), val); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return val, nil
}
