package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/service"
	"go.uber.org/zap"
)

// Limiter decides whether a request under key fits its budget
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (service.RateLimitResult, error)
}

var _ Limiter = (*service.RateLimiter)(nil)

// RateLimitMiddleware creates a rate limiting middleware. Limiter failures let the request through.
func RateLimitMiddleware(limiter Limiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := keyFunc(c)

		result, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "Too Many Requests",
				Message: fmt.Sprintf("rate limit exceeded, try again in %ds", seconds),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPBasedKey keys the limit by client IP. Forwarding headers count only when
// the engine's trusted proxies include the peer.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}

// OperatorKey keys the limit per operator and route, falling back to the client IP
func OperatorKey(c *gin.Context) string {
	subject := OperatorID(c)
	if subject == "" {
		subject = "ip:" + IPBasedKey(c)
	}
	return fmt.Sprintf("%s:%s", c.FullPath(), subject)
}
