package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const minIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP. Buckets idle for
// longer than idleTTL are swept, at most once per idleTTL.
type IPRateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewIPRateLimiter creates a limiter allowing perSecond requests per IP
// with the given burst
func NewIPRateLimiter(perSecond float64, burst int) *IPRateLimiter {
	// A bucket idle for its full refill time is equal to a fresh one
	ttl := time.Duration(float64(burst) / perSecond * float64(time.Second))
	if ttl < minIdleTTL {
		ttl = minIdleTTL
	}
	return &IPRateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		idleTTL:   ttl,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *IPRateLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) >= l.idleTTL {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// Len returns the number of tracked client IPs
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// Allow reports whether a request from ip may proceed now
func (l *IPRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

// RateLimitMiddleware rejects requests over the per-IP budget with 429
func RateLimitMiddleware(l *IPRateLimiter, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			log.Warn("too many requests", slog.String("ip", ip), slog.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
