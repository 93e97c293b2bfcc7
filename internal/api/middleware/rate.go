package middleware

import (
	"net/http"
	"sync"

	"github.com/GriffinCanCode/traceprobe/internal/shared/problem"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// RateLimit creates a per-IP rate limiting middleware. Rejections are
// reported through the problem middleware as 429.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			_ = c.Error(problem.New(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests),
				"rate limit exceeded for "+ip))
			c.Abort()
			return
		}

		c.Next()
	}
}

// GlobalRateLimit creates a rate limiting middleware shared by all callers.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			_ = c.Error(problem.New(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests),
				"rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}
