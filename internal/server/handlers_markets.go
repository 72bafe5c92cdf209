package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eyupilis/trading-platform/internal/domain"
	apperrors "github.com/eyupilis/trading-platform/internal/errors"
)

func (s *Server) handleListMarkets(c echo.Context) error {
	markets, err := s.markets.List(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list markets", err)
	}
	if markets == nil {
		markets = []domain.Market{}
	}
	return c.JSON(http.StatusOK, markets)
}

func (s *Server) handleGetMarket(c echo.Context) error {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		return apperrors.ValidationError("symbol is required")
	}

	market, err := s.markets.GetBySymbol(c.Request().Context(), symbol)
	if err != nil {
		if errors.Is(err, domain.ErrMarketNotFound) {
			return apperrors.NotFoundError("market not found").WithField("symbol", symbol)
		}
		return apperrors.InternalError("failed to load market", err)
	}
	return c.JSON(http.StatusOK, market)
}
