package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"safespace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

// RateLimiter is satisfied by services.RedisService.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RateLimitMiddleware struct {
	limiter RateLimiter
	log     *slog.Logger
}

// NewRateLimitMiddleware returns a middleware set. A nil limiter disables
// limiting.
func NewRateLimitMiddleware(limiter RateLimiter, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimitMiddleware{
		limiter: limiter,
		log:     log,
	}
}

// clientKey hashes the client address so raw IPs never reach Redis.
func clientKey(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}

// WebSocketRateLimit bounds connection attempts per client address. When
// the limiter itself fails the request is let through.
func (rm *RateLimitMiddleware) WebSocketRateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rm.limiter == nil || requests <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:websocket:%s", clientKey(c.ClientIP()))
		allowed, err := rm.limiter.CheckRateLimit(c.Request.Context(), key, requests, window)
		if err != nil {
			rm.log.Warn("Rate limit check failed, allowing connection", "error", err)
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, response.ErrCodeRateLimited)
			return
		}

		c.Next()
	}
}
