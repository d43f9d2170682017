package middlewares

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janhq/support-chat/internal/infrastructure/metrics"
	"github.com/janhq/support-chat/internal/infrastructure/ratelimit"
)

const rateLimitedMessage = "Too many requests. Please wait a moment and try again."

// RateLimitMiddleware limits requests per client IP within a fixed window and
// advertises the policy with RateLimit-Policy / RateLimit headers.
func RateLimitMiddleware(limiter *ratelimit.Limiter, window time.Duration) gin.HandlerFunc {
	windowSeconds := int(math.Ceil(window.Seconds()))

	return func(c *gin.Context) {
		decision := limiter.Allow(c.Request.Context(), rateKey(c))

		policy := fmt.Sprintf("%d-in-%dsec", decision.Limit, windowSeconds)
		resetSeconds := int(math.Ceil(decision.ResetAfter.Seconds()))
		c.Header("RateLimit-Policy", fmt.Sprintf("%q; q=%d; w=%d", policy, decision.Limit, windowSeconds))
		c.Header("RateLimit", fmt.Sprintf("%q; r=%d; t=%d", policy, decision.Remaining, resetSeconds))

		if !decision.Allowed {
			metrics.RateLimitedTotal.Inc()
			c.Header("Retry-After", strconv.Itoa(resetSeconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitedMessage})
			return
		}

		c.Next()
	}
}

func rateKey(c *gin.Context) string {
	if ip := clientIP(c.ClientIP()); ip != "" {
		return "ip:" + ip
	}
	return "anonymous"
}

// Normalize IPv6-mapped IPv4 etc.
func clientIP(raw string) string {
	if raw == "" {
		return ""
	}
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
