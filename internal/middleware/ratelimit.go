package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SaiDhinakar/ai-powered-form-filling/internal/clients/redis"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/logger"
	"github.com/SaiDhinakar/ai-powered-form-filling/internal/requestdata"
)

// RateLimitMiddleware throttles the expensive extraction and fill routes
// per authenticated user. A nil limiter disables throttling (no Redis
// configured).
type RateLimitMiddleware struct {
	log     *logger.Logger
	limiter redis.RateLimiter
}

func NewRateLimitMiddleware(log *logger.Logger, limiter redis.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{log: log.With("middleware", "RateLimitMiddleware"), limiter: limiter}
}

func (rm *RateLimitMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rm.limiter == nil {
			c.Next()
			return
		}
		key := c.ClientIP()
		if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			key = rd.UserID.String()
		}
		allowed, err := rm.limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// limiter outage should not take the API down
			rm.log.Warn("rate limiter unavailable, allowing request", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
