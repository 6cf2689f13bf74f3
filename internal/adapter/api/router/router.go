package router

import (
	"github.com/labstack/echo/v4"

	"chatbuysell/internal/infrastructure/ratelimit"
)

func Setup(e *echo.Echo, limiter *ratelimit.RateLimiter) {
	SetupAuthRouter(e, limiter)
	SetupHealthRouter(e)
}
