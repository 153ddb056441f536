// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one bucket
// per client and periodic eviction of idle buckets. The limiter is
// process-local: every replica of the todo service enforces its own budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// defaultBucketTTL is how long an idle bucket survives before eviction.
	defaultBucketTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between eviction sweeps.
	sweepEvery = 5000
)

// KeyFunc maps a request to the identity whose bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByIP keys buckets by gin's resolved client IP (honoring the engine's
// trusted proxy settings).
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	ttl     time.Duration
	lookups uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second with the
// given burst. A burst <= 0 is raised to 1 and a nil keyFn means KeyByIP.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByIP()
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		ttl:     defaultBucketTTL,
	}
}

// limiterFor returns the bucket for key, creating it if needed. Every
// sweepEvery lookups it first evicts buckets idle for at least ttl, so a stale
// bucket for key itself is replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the Gin middleware. A denied request is answered with
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds>
//	{"request_id":"<uuid>","code":"too_many_requests","message":"rate limit exceeded"}
//
// and never reaches the database.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		lim := rl.limiterFor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rl.rps)))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}

// retryAfterSeconds is the time to refill one token, rounded up, never below 1.
func retryAfterSeconds(rps rate.Limit) int {
	if rps <= 0 || rps == rate.Inf {
		return 1
	}
	s := int(math.Ceil(1 / float64(rps)))
	if s < 1 {
		return 1
	}
	return s
}
