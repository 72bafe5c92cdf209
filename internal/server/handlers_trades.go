package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eyupilis/trading-platform/internal/domain"
	apperrors "github.com/eyupilis/trading-platform/internal/errors"
)

type createTradeRequest struct {
	SignalID   uuid.UUID `json:"signal_id"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
}

type closeTradeRequest struct {
	ExitPrice float64 `json:"exit_price"`
	PnL       float64 `json:"pnl"`
}

// handleListTrades requires a signal_id or trader_id filter; the full trade
// table is never served in one response.
func (s *Server) handleListTrades(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		trades []domain.Trade
		err    error
	)
	switch {
	case c.QueryParam("signal_id") != "":
		signalID, parseErr := uuid.Parse(c.QueryParam("signal_id"))
		if parseErr != nil {
			return apperrors.ValidationError("invalid signal_id").
				WithField("signal_id", c.QueryParam("signal_id"))
		}
		trades, err = s.trades.ListBySignal(ctx, signalID)
	case c.QueryParam("trader_id") != "":
		traderID, parseErr := uuid.Parse(c.QueryParam("trader_id"))
		if parseErr != nil {
			return apperrors.ValidationError("invalid trader_id").
				WithField("trader_id", c.QueryParam("trader_id"))
		}
		trades, err = s.trades.ListByTrader(ctx, traderID)
	default:
		return apperrors.ValidationError("signal_id or trader_id query parameter is required")
	}
	if err != nil {
		return apperrors.InternalError("failed to list trades", err)
	}

	if trades == nil {
		trades = []domain.Trade{}
	}
	return c.JSON(http.StatusOK, trades)
}

func (s *Server) handleGetTrade(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid trade ID").WithField("id", c.Param("id"))
	}

	trade, err := s.trades.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTradeNotFound) {
			return apperrors.NotFoundError("trade not found").WithField("id", id.String())
		}
		return apperrors.InternalError("failed to load trade", err)
	}
	return c.JSON(http.StatusOK, trade)
}

func (s *Server) handleCreateTrade(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}

	var req createTradeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.SignalID == uuid.Nil {
		return apperrors.ValidationError("signal_id is required")
	}
	if req.EntryPrice <= 0 {
		return apperrors.ValidationError("entry_price must be positive")
	}
	if req.Quantity <= 0 {
		return apperrors.ValidationError("quantity must be positive")
	}

	ctx := c.Request().Context()
	trade := &domain.Trade{
		SignalID:   req.SignalID,
		TraderID:   trader,
		EntryPrice: req.EntryPrice,
		Quantity:   req.Quantity,
		Status:     domain.TradeStatusOpen,
	}

	created, err := s.trades.Create(ctx, trade)
	if err != nil {
		if errors.Is(err, domain.ErrSignalNotFound) {
			return apperrors.NotFoundError("signal not found").
				WithField("signal_id", req.SignalID.String())
		}
		return apperrors.InternalError("failed to create trade", err)
	}

	s.emitter.EmitNewTrade(created)

	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleCloseTrade(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid trade ID").WithField("id", c.Param("id"))
	}

	var req closeTradeRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.ExitPrice <= 0 {
		return apperrors.ValidationError("exit_price must be positive")
	}

	ctx := c.Request().Context()
	closed, err := s.trades.Close(ctx, id, trader, domain.TradeClose{
		ExitPrice: req.ExitPrice,
		PnL:       req.PnL,
	})
	if err != nil {
		return tradeMutationError(err, id)
	}

	s.emitter.EmitTradeUpdate(closed)

	return c.JSON(http.StatusOK, closed)
}

func (s *Server) handleDeleteTrade(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid trade ID").WithField("id", c.Param("id"))
	}

	if err := s.trades.Delete(c.Request().Context(), id, trader); err != nil {
		return tradeMutationError(err, id)
	}

	s.emitter.EmitTradeDelete(id)

	return c.NoContent(http.StatusNoContent)
}

func tradeMutationError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, domain.ErrTradeNotFound):
		return apperrors.NotFoundError("trade not found").WithField("id", id.String())
	case errors.Is(err, domain.ErrNotTradeOwner):
		return apperrors.ForbiddenError("trade belongs to another trader").
			WithField("id", id.String())
	default:
		return apperrors.InternalError("trade mutation failed", err).
			WithField("id", id.String())
	}
}
