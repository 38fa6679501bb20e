package httpx

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: Burst requests at once, refilled at
// RequestsPerWindow per Window.
type RateLimitConfig struct {
	RequestsPerWindow int           `env:"REQUESTS"`
	Window            time.Duration `env:"WINDOW"`
	Burst             int           `env:"BURST"`
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// RateLimitProfiles groups the limits applied by the admin API. The env tags
// let it be embedded in a caarlos0/env config under a prefix.
type RateLimitProfiles struct {
	// Strict guards destructive operator actions.
	Strict RateLimitConfig `envPrefix:"STRICT_"`
	// Moderate applies to every other authenticated call.
	Moderate RateLimitConfig `envPrefix:"MODERATE_"`
	// Public covers probes and metrics scrapes.
	Public RateLimitConfig `envPrefix:"PUBLIC_"`
}

// DefaultRateLimits returns the built-in profiles.
func DefaultRateLimits() RateLimitProfiles {
	return RateLimitProfiles{
		Strict:   RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5},
		Moderate: RateLimitConfig{RequestsPerWindow: 60, Window: time.Minute, Burst: 20},
		Public:   RateLimitConfig{RequestsPerWindow: 120, Window: time.Minute, Burst: 60},
	}
}

// KeyExtractor picks the bucket a request is charged to. An empty key
// bypasses the limit.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client address, honouring X-Forwarded-For and
// X-Real-IP set by a reverse proxy.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// SubjectKeyExtractor keys on the authenticated operator and falls back to
// the client address for anonymous requests.
func SubjectKeyExtractor(r *http.Request) string {
	if sub := SubjectFromContext(r.Context()); sub != "" {
		return "sub:" + sub
	}
	if ip := IPKeyExtractor(r); ip != "" {
		return "ip:" + ip
	}
	return ""
}

// idleBucketTTL is how long an untouched bucket is kept before it is
// forgotten. A forgotten bucket starts full again, so this must exceed the
// refill time of any configured profile.
const idleBucketTTL = 15 * time.Minute

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// buckets hands out one limiter per key.
type buckets struct {
	cfg RateLimitConfig
	now func() time.Time

	mu        sync.Mutex
	byKey     map[string]*bucket
	lastSweep time.Time
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{
		cfg:   cfg,
		now:   time.Now,
		byKey: make(map[string]*bucket),
	}
}

// take charges one request to key. When the bucket is empty it returns how
// long the caller should wait.
func (b *buckets) take(key string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.evictIdle(now)

	bk, ok := b.byKey[key]
	if !ok {
		bk = &bucket{lim: rate.NewLimiter(b.cfg.limit(), b.cfg.Burst)}
		b.byKey[key] = bk
	}
	bk.seen = now

	res := bk.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, b.cfg.Window
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (b *buckets) evictIdle(now time.Time) {
	if now.Sub(b.lastSweep) < idleBucketTTL {
		return
	}
	b.lastSweep = now
	for key, bk := range b.byKey {
		if now.Sub(bk.seen) > idleBucketTTL {
			delete(b.byKey, key)
		}
	}
}

// RateLimitMiddleware rejects requests beyond cfg with 429 and a Retry-After
// header. Requests are bucketed by keyOf.
func RateLimitMiddleware(cfg RateLimitConfig, keyOf KeyExtractor) Middleware {
	b := newBuckets(cfg)
	limit := strconv.Itoa(cfg.RequestsPerWindow)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyOf(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := b.take(key)
			w.Header().Set("X-RateLimit-Limit", limit)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(wait.Seconds())), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			slogx.FromContext(r.Context()).Warn("rate limited",
				"key", key,
				"path", r.URL.Path,
				"retry_after_s", retryAfter,
			)
			WriteError(w, http.StatusTooManyRequests,
				"rate_limit_exceeded", "Too many requests, retry after "+strconv.Itoa(retryAfter)+"s.")
		})
	}
}

// RateLimitByIP limits by client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitBySubject limits by authenticated operator.
func RateLimitBySubject(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, SubjectKeyExtractor)
}
