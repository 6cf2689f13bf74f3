package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"chatbuysell/internal/infrastructure/ratelimit"
	"chatbuysell/pkg/errors"
	"chatbuysell/pkg/logger"
	"chatbuysell/pkg/response"
)

// RateLimit throttles a route per client IP using the shared limiter.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, retryAfter := limiter.Allow(ip, action)
			if allowed {
				return next(c)
			}

			logger.Warn("RATE LIMIT: blocked %s from %s (retry in %v)", action, ip, retryAfter)
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
			return response.Error(c, errors.New(
				errors.CodeTooManyRequests,
				"Rate limit exceeded",
				http.StatusTooManyRequests,
				nil,
			))
		}
	}
}
