package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	apperrors "github.com/kbukum/whisper-srt/errors"
	"github.com/kbukum/whisper-srt/resilience"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(*http.Request) string

const sweepInterval = 5 * time.Minute

// RateLimit answers 429 with Retry-After when the caller's bucket is empty.
// Probe paths are never limited. A nil key uses ClientIP.
func RateLimit(limiter *resilience.KeyedRateLimiter, key KeyFunc) Middleware {
	if key == nil {
		key = ClientIP
	}
	var lastSweep atomic.Int64
	lastSweep.Store(time.Now().UnixNano())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now().UnixNano()
			if last := lastSweep.Load(); time.Duration(now-last) > sweepInterval && lastSweep.CompareAndSwap(last, now) {
				limiter.Sweep()
			}

			ok, wait := limiter.Allow(key(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
				writeError(w, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, else the remote host.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
