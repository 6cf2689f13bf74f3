package handler

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/pkg/logger"
	"chatbuysell/pkg/response"
)

// CallbackCompleter finishes a sign-in from the provider's redirect.
type CallbackCompleter interface {
	HandleCallback(ctx context.Context, code, state string) (*entity.Identity, error)
}

type AuthHandler struct {
	session  CallbackCompleter
	loginURL string
}

func NewAuthHandler(session CallbackCompleter, loginURL string) *AuthHandler {
	return &AuthHandler{
		session:  session,
		loginURL: loginURL,
	}
}

type callbackRequest struct {
	Code  string `query:"code" validate:"required"`
	State string `query:"state" validate:"required"`
}

type identityResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Type     string `json:"type,omitempty"`
}

// BeginLogin forwards the browser to the backend's provider login.
func (h *AuthHandler) BeginLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, h.loginURL)
}

// Callback receives the provider redirect, completes the sign-in and tells
// the user they can go back to the terminal.
func (h *AuthHandler) Callback(c echo.Context) error {
	var req callbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	identity, err := h.session.HandleCallback(c.Request().Context(), req.Code, req.State)
	if err != nil {
		logger.Error("Callback Error: %v", err)
		return response.Error(c, err)
	}

	if wantsJSON(c) {
		return response.Success(c, identityResponse{
			ID:       identity.ID,
			Username: identity.Username,
			Type:     string(identity.Type),
		})
	}
	return c.HTML(http.StatusOK, fmt.Sprintf(signedInPage, html.EscapeString(identity.DisplayName())))
}

func wantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

const signedInPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Signed in</title></head>
<body>
<h1>Signed in as %s</h1>
<p>You can close this tab and return to the terminal.</p>
</body>
</html>`
