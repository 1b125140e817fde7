// README: Token-bucket rate limiting keyed per request attribute.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// idleLimiterTTL drops limiters for keys that have gone quiet.
const idleLimiterTTL = 10 * time.Minute

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterSet struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	byKey    map[string]*keyedLimiter
	lastScan time.Time
}

func (s *limiterSet) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastScan) > idleLimiterTTL {
		for k, l := range s.byKey {
			if now.Sub(l.lastSeen) > idleLimiterTTL {
				delete(s.byKey, k)
			}
		}
		s.lastScan = now
	}

	l, ok := s.byKey[key]
	if !ok {
		l = &keyedLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.byKey[key] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// RateLimit allows perSecond requests per key with the given burst. Requests
// over the limit get 429. An empty key or a non-positive rate is not limited.
func RateLimit(perSecond float64, burst int, key func(*gin.Context) string) gin.HandlerFunc {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	set := &limiterSet{
		limit:    limit,
		burst:    burst,
		byKey:    make(map[string]*keyedLimiter),
		lastScan: time.Now(),
	}
	return func(c *gin.Context) {
		k := key(c)
		if k != "" && !set.allow(k, time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
