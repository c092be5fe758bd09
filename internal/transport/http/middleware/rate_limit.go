package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ksalhab89/coupon-system-auth/internal/infra/config"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/logger"
	"github.com/ksalhab89/coupon-system-auth/internal/infra/telemetry"
)

// Rate limit classes. Auth covers the credential-bearing endpoints and gets
// the tighter budget.
const (
	ClassAuth    = "auth"
	ClassGeneral = "general"
)

// ProblemDetails is an RFC 9457 error document.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies per-address token buckets. Each (class, address) pair
// gets its own bucket holding at most the class capacity, refilled at
// capacity per window. Buckets idle past the configured TTL are evicted.
type RateLimiter struct {
	cfg     config.RateLimitSettings
	metrics *telemetry.AuthMetrics
	log     *zap.Logger

	mu      sync.Mutex
	buckets map[string]*bucket

	now func() time.Time
}

func NewRateLimiter(cfg config.RateLimitSettings, metrics *telemetry.AuthMetrics, log *zap.Logger) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.AuthCapacity <= 0 {
		cfg.AuthCapacity = 10
	}
	if cfg.GeneralCapacity <= 0 {
		cfg.GeneralCapacity = 100
	}

	return &RateLimiter{
		cfg:     cfg,
		metrics: metrics,
		log:     log,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		l.now = now
	}
	return l
}

// Limit returns the middleware enforcing the named class budget.
func (l *RateLimiter) Limit(class string) gin.HandlerFunc {
	capacity := l.capacity(class)

	return func(c *gin.Context) {
		if !l.cfg.Enabled {
			c.Next()
			return
		}

		addr := l.clientAddr(c)
		now := l.now()
		b := l.bucket(class, addr, capacity, now)

		reservation := b.limiter.ReserveN(now, 1)
		if !reservation.OK() {
			l.reject(c, class, addr, capacity, l.cfg.Window)
			return
		}

		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			l.reject(c, class, addr, capacity, delay)
			return
		}

		remaining := int(b.limiter.TokensAt(now))
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(capacity))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(now.Add(l.cfg.Window).Unix(), 10))

		c.Next()
	}
}

// Run evicts idle buckets until the context is cancelled.
func (l *RateLimiter) Run(ctx context.Context) {
	ttl := l.cfg.IdleBucketTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if evicted := l.evictIdle(l.now()); evicted > 0 {
				l.log.Debug("evicted idle rate limit buckets", zap.Int("count", evicted))
			}
		}
	}
}

func (l *RateLimiter) bucket(class, addr string, capacity int, now time.Time) *bucket {
	key := class + ":" + addr

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		refill := rate.Limit(float64(capacity) / l.cfg.Window.Seconds())
		b = &bucket{limiter: rate.NewLimiter(refill, capacity)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	return b
}

func (l *RateLimiter) evictIdle(now time.Time) int {
	ttl := l.cfg.IdleBucketTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > ttl {
			delete(l.buckets, key)
			evicted++
		}
	}

	return evicted
}

func (l *RateLimiter) reject(c *gin.Context, class, addr string, capacity int, retryAfter time.Duration) {
	l.metrics.RateLimited.WithLabelValues(class).Inc()
	l.log.Warn("request rate limited",
		zap.String("class", class),
		zap.String("client_ip", logger.MaskIP(addr)),
		zap.String("path", c.Request.URL.Path),
	)

	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	c.Header("Retry-After", strconv.Itoa(seconds))
	c.Header("X-RateLimit-Limit", strconv.Itoa(capacity))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", strconv.FormatInt(l.now().Add(retryAfter).Unix(), 10))
	c.Header("Content-Type", "application/problem+json")

	c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
		Type:   "about:blank",
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Detail: fmt.Sprintf("rate limit exceeded, retry in %ds", seconds),
	})
}

func (l *RateLimiter) capacity(class string) int {
	if class == ClassAuth {
		return l.cfg.AuthCapacity
	}
	return l.cfg.GeneralCapacity
}

// clientAddr resolves the address a bucket is keyed by. The first entry of
// X-Forwarded-For is honored only when the deployment declares a trusted
// proxy in front of the service.
func (l *RateLimiter) clientAddr(c *gin.Context) string {
	if l.cfg.TrustForwardedHeader {
		if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
			first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
			if first != "" {
				return first
			}
		}
	}

	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
