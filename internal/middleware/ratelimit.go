package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/patrickmn/go-cache"
)

// bucket holds fractional tokens so slow refill rates still accrue.
type bucket struct {
	mu     sync.Mutex
	tokens float64
	last   time.Time
}

// take consumes one token. It returns 0 on success, otherwise the wait
// until the next token is available.
func (b *bucket) take(now time.Time, capacity, perMinute float64) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	if elapsed := now.Sub(b.last); elapsed > 0 {
		b.tokens = math.Min(capacity, b.tokens+elapsed.Minutes()*perMinute)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return 0
	}
	if perMinute <= 0 {
		return time.Minute
	}
	return time.Duration((1 - b.tokens) / perMinute * float64(time.Minute))
}

const (
	idleBucketTTL = 10 * time.Minute
	sweepEvery    = 5 * time.Minute
)

// RateLimiter keeps one bucket per chat user. Idle buckets expire; the
// sweep runs inline so no background goroutine is needed.
type RateLimiter struct {
	mu        sync.Mutex
	buckets   *cache.Cache
	capacity  float64
	perMinute float64
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(capacity, refillPerMinute int) *RateLimiter {
	return &RateLimiter{
		buckets:   cache.New(idleBucketTTL, 0),
		capacity:  float64(capacity),
		perMinute: float64(refillPerMinute),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Reserve takes a token for key and returns how long the caller must wait
// when none is left.
func (rl *RateLimiter) Reserve(key string) time.Duration {
	now := rl.now()

	rl.mu.Lock()
	if now.Sub(rl.lastSweep) > sweepEvery {
		rl.buckets.DeleteExpired()
		rl.lastSweep = now
	}
	b, ok := rl.buckets.Get(key)
	if !ok {
		b = &bucket{tokens: rl.capacity, last: now}
	}
	rl.buckets.SetDefault(key, b) // extends idle ttl
	rl.mu.Unlock()

	return b.(*bucket).take(now, rl.capacity, rl.perMinute)
}

func (rl *RateLimiter) Allow(key string) bool { return rl.Reserve(key) == 0 }

// RateLimit limits requests per API key and {user} route param. Must be
// mounted inside a route that declares {user}.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := APIKeyFromContext(r.Context()) + ":" + chi.URLParam(r, "user")
			if wait := limiter.Reserve(key); wait > 0 {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "too many messages, slow down", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
