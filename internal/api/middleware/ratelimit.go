package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/chain-estates/internal/api/shared/errors"
	"github.com/feral-file/chain-estates/internal/logger"
	"github.com/feral-file/chain-estates/internal/ratelimit"
)

// RateLimit throttles requests per authenticated caller, or per client IP when there is none.
// A nil limiter lets everything through.
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key, ok := Caller(c)
		if !ok {
			key = c.ClientIP()
		}

		if !limiter.Allow(key) {
			logger.WarnCtx(c.Request.Context(), "Rate limit exceeded",
				zap.String("client", key),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierrors.ErrorResponse{
				Error: apierrors.NewRateLimitedError("Too many requests"),
			})
			return
		}

		c.Next()
	}
}
