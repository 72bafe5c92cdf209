package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMiddleware(t *testing.T, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Use(Middleware())
	e.GET("/test", handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_NoError(t *testing.T) {
	rec := runMiddleware(t, func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_StructuredError(t *testing.T) {
	rec := runMiddleware(t, func(c echo.Context) error {
		return NotFoundError("signal not found").WithField("signal_id", "s1")
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "signal not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "s1", resp.Context["signal_id"])
}

func TestMiddleware_PlainErrorBecomesInternal(t *testing.T) {
	rec := runMiddleware(t, func(c echo.Context) error {
		return assert.AnError
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, TypeInternal, resp.Type)
}

func TestMiddleware_EchoHTTPErrorPassesThrough(t *testing.T) {
	rec := runMiddleware(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
