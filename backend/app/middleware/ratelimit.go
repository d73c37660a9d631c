package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const clientIdle = 10 * time.Minute

type clientBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// ClientLimiter keeps one token bucket per client address, so one noisy
// client cannot use up the allowance of the others. Buckets idle for
// longer than ten minutes are forgotten.
type ClientLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	clients   map[string]*clientBucket
	lastSweep time.Time
}

func NewClientLimiter(limit rate.Limit, burst int) *ClientLimiter {
	return &ClientLimiter{limit: limit, burst: burst, clients: make(map[string]*clientBucket), lastSweep: time.Now()}
}

// Allow spends one token of key's bucket.
func (c *ClientLimiter) Allow(key string) bool {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Sub(c.lastSweep) > clientIdle {
		for k, b := range c.clients {
			if now.Sub(b.seen) > clientIdle {
				delete(c.clients, k)
			}
		}
		c.lastSweep = now
	}
	b, ok := c.clients[key]
	if !ok {
		b = &clientBucket{lim: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = b
	}
	b.seen = now
	return b.lim.Allow()
}

// clientKey is the peer host; forwarding headers are not trusted.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit answers 429 to clients above their rate.
func RateLimit(l *ClientLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r)) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
