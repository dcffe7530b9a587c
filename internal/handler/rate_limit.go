package handler

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/equiptrack/auth-service/internal/dto"
	"github.com/equiptrack/auth-service/internal/service"
)

// RateLimitMiddleware throttles requests per key over a sliding window.
// A Redis failure lets the request through; the limiter is protection,
// not a dependency.
func RateLimitMiddleware(rateLimiter *service.RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFunc(c)

		allowed, retryAfter, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		remaining, _ := rateLimiter.Remaining(c.Request.Context(), key, limit, window)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "Too Many Requests",
				Message: "Rate limit exceeded. Please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPBasedKey extracts the client IP, honoring X-Forwarded-For behind a
// proxy
func IPBasedKey(c *gin.Context) string {
	ip := c.GetHeader("X-Forwarded-For")
	if ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}
	return c.ClientIP()
}
