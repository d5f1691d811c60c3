package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/utils"
)

// RateLimitConfig configures the token buckets in front of /api.
type RateLimitConfig struct {
	Burst         int           // bucket capacity
	RefillPerMin  int           // tokens added per minute
	MaxEntries    int           // sweep early when this many buckets exist, 0 = unbounded
	SweepInterval time.Duration // default 1m
	IdleTTL       time.Duration // buckets unused this long are dropped, default 15m
	TrustProxy    bool          // resolve the client IP from proxy headers
}

// callerKey buckets signed-in callers by user id and anonymous ones by IP.
func callerKey(r *http.Request, trustProxy bool) string {
	if id := identity.FromContext(r.Context()); id != nil {
		return "user:" + id.ID
	}
	return "ip:" + utils.ClientIP(r, trustProxy)
}

type bucket struct {
	tokens   float64
	refilled time.Time
	seen     time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	perSec    float64
	capacity  float64
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig, now time.Time) *limiter {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerMin = max(cfg.RefillPerMin, 1)
	return &limiter{
		cfg:       cfg,
		perSec:    float64(cfg.RefillPerMin) / 60,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[string]*bucket, 256),
		lastSweep: now,
	}
}

// take spends one token of key. When none is left it returns how many
// seconds until the next one.
func (l *limiter) take(key string, now time.Time) (ok bool, remaining, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.buckets) >= l.cfg.MaxEntries
	if full || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweep(now)
	}

	b, found := l.buckets[key]
	if !found {
		b = &bucket{tokens: l.capacity, refilled: now}
		l.buckets[key] = b
	}
	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.perSec)
		b.refilled = now
	}
	b.seen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := int(math.Ceil((1 - b.tokens) / l.perSec))
	return false, 0, max(wait, 1)
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) > l.cfg.IdleTTL {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects callers that exhausted their bucket with 429 and a
// Retry-After header. It must run after Identity to key by user.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg, time.Now())
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.take(callerKey(r, l.cfg.TrustProxy), time.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(retry))
				reject(w, http.StatusTooManyRequests, "rate_limited", "too many requests, retry in "+strconv.Itoa(retry)+"s")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
