package router

import (
	"github.com/labstack/echo/v4"

	"chatbuysell/internal/adapter/api/handler"
	"chatbuysell/internal/adapter/api/middleware"
	"chatbuysell/internal/infrastructure/ratelimit"
)

func SetupAuthRouter(e *echo.Echo, limiter *ratelimit.RateLimiter) {
	authHandler := handler.GetAuthHandler()

	e.GET("/auth/facebook", authHandler.BeginLogin)
	e.GET("/auth/callback", authHandler.Callback, middleware.RateLimit(limiter, ratelimit.ActionCallback))
}
