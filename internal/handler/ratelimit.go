package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	rateLimitedReply = "Bạn gửi tin nhắn quá nhanh. Vui lòng đợi một chút rồi thử lại! ⏳"
	limiterIdleTTL   = 10 * time.Minute
)

// RateLimiter hands out one token bucket per client. Clients are keyed by
// the X-User-ID header, falling back to the remote address.
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters *expirable.LRU[string, *rate.Limiter]
}

// NewRateLimiter creates a limiter allowing rps requests per second with
// the given burst, tracking at most maxClients clients.
func NewRateLimiter(rps float64, burst, maxClients int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, limiterIdleTTL),
	}
}

// Allow reports whether the client may make a request now
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	l, ok := r.limiters.Get(client)
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters.Add(client, l)
	}
	r.mu.Unlock()
	return l.Allow()
}

// Middleware rejects requests over the limit with 429
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.GetHeader(UserIDHeader)
		if client == "" {
			client = c.ClientIP()
		}
		if !r.Allow(client) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":    "Too many requests",
				"response": rateLimitedReply,
				"success":  false,
			})
			return
		}
		c.Next()
	}
}
