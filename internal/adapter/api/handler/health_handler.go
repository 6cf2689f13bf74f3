package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"chatbuysell/internal/usecase"
)

type HealthHandler struct {
	identity usecase.IdentityProvider
}

func NewHealthHandler(identity usecase.IdentityProvider) *HealthHandler {
	return &HealthHandler{
		identity: identity,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	session := "anonymous"
	if h.identity != nil && h.identity.Current() != nil {
		session = "authenticated"
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "Callback receiver is running",
		"session": session,
		"time":    time.Now().Format(time.RFC3339),
	})
}
