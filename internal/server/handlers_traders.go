package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eyupilis/trading-platform/internal/domain"
	apperrors "github.com/eyupilis/trading-platform/internal/errors"
)

// handleGetTrader returns the public profile of a trader. Subscriber
// accounts are not exposed here, so a subscriber ID gets the same 404
// as an unknown one.
func (s *Server) handleGetTrader(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid trader ID").WithField("id", c.Param("id"))
	}

	user, err := s.users.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("trader not found").WithField("id", id.String())
		}
		return apperrors.InternalError("failed to load trader", err)
	}
	if !user.IsTrader() {
		return apperrors.NotFoundError("trader not found").WithField("id", id.String())
	}
	return c.JSON(http.StatusOK, user)
}
