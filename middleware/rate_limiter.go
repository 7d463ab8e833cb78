package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute applies when the configured limit is not positive.
const DefaultRequestsPerMinute = 200

// limiterIdleTTL is how long an IP may stay silent before its bucket is
// dropped. A bucket refills completely within a minute, so a dropped bucket
// and a fresh one behave the same.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds one token bucket per client IP.
type rateLimiterStore struct {
	perMinute int
	clock     clock.Clock
	limiters  map[string]*limiterEntry
	lastPrune time.Time
	mu        sync.Mutex
}

func newRateLimiterStore(perMinute int) *rateLimiterStore {
	if perMinute <= 0 {
		perMinute = DefaultRequestsPerMinute
	}
	return &rateLimiterStore{
		perMinute: perMinute,
		clock:     clock.WallClock,
		limiters:  make(map[string]*limiterEntry),
	}
}

// getLimiter returns the limiter for ip, creating one if it doesn't exist.
// The bucket refills at perMinute and bursts up to the same amount.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if now.Sub(s.lastPrune) >= limiterIdleTTL {
		s.prune(now)
	}

	entry, exists := s.limiters[ip]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(s.perMinute)), s.perMinute),
		}
		s.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// prune drops idle buckets. Callers hold s.mu.
func (s *rateLimiterStore) prune(now time.Time) {
	for ip, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= limiterIdleTTL {
			delete(s.limiters, ip)
		}
	}
	s.lastPrune = now
}

// RateLimitMiddleware limits requests per client IP to perMinute.
func RateLimitMiddleware(perMinute int, logger *zap.Logger) gin.HandlerFunc {
	store := newRateLimiterStore(perMinute)
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip).Allow() {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
