package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/calibrate-api/internal/errors"
	"github.com/yukikurage/calibrate-api/internal/ratelimit"
)

// RateLimit applies limiter per authenticated user. A nil limiter disables
// limiting, and Redis failures let the request through.
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		result, err := limiter.Allow(c.Request.Context(), strconv.FormatUint(userID, 10))
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rate limiter unavailable", "user_id", userID, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			apierrors.TooManyRequests(c, "")
			return
		}

		c.Next()
	}
}
