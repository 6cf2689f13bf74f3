package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"chatbuysell/pkg/logger"
)

// RequestLogger sends access logs to the application logger instead of
// stdout, which belongs to the terminal UI.
func RequestLogger() echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			entry := logger.With().
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Logger()
			if v.Error != nil {
				entry.Warn().Err(v.Error).Msg("request failed")
				return nil
			}
			entry.Info().Msg("request")
			return nil
		},
	})
}
