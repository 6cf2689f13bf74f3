package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chatbuysell/pkg/errors"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Error(c, apperrors.Backend(http.StatusNotFound, "Chat room not found", nil)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "BACKEND_ERROR")
	assert.Contains(t, rec.Body.String(), "Chat room not found")
}

func TestErrorRendersValidation(t *testing.T) {
	c, rec := newContext()

	type callback struct {
		Code string `validate:"required"`
	}
	err := validator.New().Struct(callback{})
	require.Error(t, err)

	require.NoError(t, Error(c, err))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "code is required")
}

func TestSuccess(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, Success(c, map[string]string{"status": "ok"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}
