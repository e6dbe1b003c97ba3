package resilience

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig sizes a token bucket.
type RateLimiterConfig struct {
	// Rate is the refill speed in tokens per second.
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// ApplyDefaults sets 5 tokens per second and a burst of twice the rate.
func (c *RateLimiterConfig) ApplyDefaults() {
	if c.Rate <= 0 {
		c.Rate = 5
	}
	if c.Burst <= 0 {
		c.Burst = max(1, int(c.Rate*2))
	}
}

// RateLimiter is a token bucket read against an injectable clock.
type RateLimiter struct {
	bucket *rate.Limiter
	burst  float64
	now    func() time.Time
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	config.ApplyDefaults()
	return newRateLimiter(config, time.Now)
}

func newRateLimiter(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(config.Rate), config.Burst),
		burst:  float64(config.Burst),
		now:    now,
	}
}

// Allow takes a token if one is left.
func (rl *RateLimiter) Allow() bool {
	return rl.bucket.AllowN(rl.now(), 1)
}

// RetryAfter is the wait until the next token. Zero means one is available.
func (rl *RateLimiter) RetryAfter() time.Duration {
	now := rl.now()
	r := rl.bucket.ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

func (rl *RateLimiter) full() bool {
	return rl.bucket.TokensAt(rl.now()) >= rl.burst
}

// KeyedRateLimiter gives every key, usually a client IP, its own bucket.
// Sweep forgets buckets that have refilled completely.
type KeyedRateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu      sync.Mutex
	buckets map[string]*RateLimiter
}

func NewKeyedRateLimiter(config RateLimiterConfig) *KeyedRateLimiter {
	config.ApplyDefaults()
	return &KeyedRateLimiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*RateLimiter),
	}
}

func (k *KeyedRateLimiter) bucket(key string) *RateLimiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	b, ok := k.buckets[key]
	if !ok {
		b = newRateLimiter(k.config, func() time.Time { return k.now() })
		k.buckets[key] = b
	}
	return b
}

// Allow takes a token for key. When none is left it also returns how long
// the caller should wait.
func (k *KeyedRateLimiter) Allow(key string) (bool, time.Duration) {
	b := k.bucket(key)
	if b.Allow() {
		return true, 0
	}
	return false, b.RetryAfter()
}

// Sweep drops idle buckets and returns how many went.
func (k *KeyedRateLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for key, b := range k.buckets {
		if b.full() {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
