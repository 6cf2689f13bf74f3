package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"chatbuysell/internal/adapter/api/handler"
	apimiddleware "chatbuysell/internal/adapter/api/middleware"
	"chatbuysell/internal/adapter/api/router"
	"chatbuysell/internal/infrastructure/ratelimit"
	"chatbuysell/internal/usecase"
	"chatbuysell/pkg/logger"
)

// NewServer builds the local receiver for the sign-in redirect.
func NewServer(session *usecase.SessionUseCase, loginURL string, limiter *ratelimit.RateLimiter) *echo.Echo {
	handler.Setup(session, loginURL)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(apimiddleware.RequestLogger())

	e.Validator = NewValidator()

	router.Setup(e, limiter)
	return e
}

// Serve runs e on addr until ctx is cancelled.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting callback receiver on %s...", addr)
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown Error: %v", err)
			return err
		}
		return nil
	}
}
