// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the API-wide token bucket. It smooths bursts of cheap
// requests to /api per visitor; the lead budget of 5 per 10 minutes is a
// separate fixed window owned by the lead service (package ratelimit).
// Replays flagged by IdempotencyValidator never spend a token.
package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// bucketIdleTTL is how long an untouched bucket survives a sweep.
	bucketIdleTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between sweeps.
	sweepEvery = 5000
)

// keyFunc selects the identity a bucket belongs to.
type keyFunc func(*gin.Context) string

// KeyByClient keys buckets by ClientScope: the client id cookie when the
// browser has one, otherwise the proxy-reported IP.
func KeyByClient() keyFunc {
	return ClientScope
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per visitor key. Idle buckets are
// swept during lookups, so the map stays bounded without a background
// goroutine. It is safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	lookups int
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to
// burst. A burst below one is raised to one.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   max(burst, 1),
		keyFn:   keyFn,
		ttl:     bucketIdleTTL,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// limiterFor returns the bucket for key. A due sweep runs before the lookup,
// so a stale bucket is replaced rather than refreshed.
func (rl *RateLimiter) limiterFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.lookups = 0
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.ttl {
				delete(rl.buckets, k)
			}
		}
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// IsRateBypass reports whether IdempotencyValidator flagged the request as a
// replay that must not be limited.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// Handler enforces the buckets. A rejected request gets the same envelope
// the lead endpoint uses, resetAt being when the next token is due:
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 1
//	{"ok":false,"error":"rate_limited","resetAt":1767225600000}
//
// A rejection does not consume a token.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		now := rl.now()
		res := rl.limiterFor(rl.keyFn(c), now).ReserveN(now, 1)
		switch {
		case !res.OK():
			rejectRate(c, now, now.Add(time.Second))
		case res.DelayFrom(now) > 0:
			wait := res.DelayFrom(now)
			res.CancelAt(now)
			rejectRate(c, now, now.Add(wait))
		default:
			c.Next()
		}
	}
}

func rejectRate(c *gin.Context, now, resetAt time.Time) {
	secs := int((resetAt.Sub(now) + time.Second - 1) / time.Second)
	c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"ok":      false,
		"error":   "rate_limited",
		"resetAt": resetAt.UnixMilli(),
	})
}
