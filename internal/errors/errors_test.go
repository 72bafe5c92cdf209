package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{ValidationError("bad input"), http.StatusBadRequest},
		{UnauthorizedError("no token"), http.StatusUnauthorized},
		{ForbiddenError("not yours"), http.StatusForbidden},
		{NotFoundError("missing"), http.StatusNotFound},
		{ConflictError("already exists"), http.StatusConflict},
		{InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := InternalError("db unavailable", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "db unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestError_WithField(t *testing.T) {
	err := NotFoundError("signal not found").WithField("signal_id", "abc123")

	assert.Equal(t, "abc123", err.Context["signal_id"])

	resp := err.ToResponse()
	assert.Equal(t, "signal not found", resp.Error)
	assert.Equal(t, TypeNotFound, resp.Type)
	assert.Equal(t, "abc123", resp.Context["signal_id"])
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error passes through", func(t *testing.T) {
		original := ValidationError("bad direction")
		assert.Same(t, original, AsStructuredError(original))
	})

	t.Run("wrapped structured error is unwrapped", func(t *testing.T) {
		original := NotFoundError("gone")
		wrapped := fmt.Errorf("handler: %w", original)
		assert.Same(t, original, AsStructuredError(wrapped))
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		plain := errors.New("oops")
		structured := AsStructuredError(plain)
		require.NotNil(t, structured)
		assert.Equal(t, TypeInternal, structured.Type)
		assert.True(t, errors.Is(structured, plain))
	})
}
