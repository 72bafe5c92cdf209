package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eyupilis/trading-platform/internal/domain"
	apperrors "github.com/eyupilis/trading-platform/internal/errors"
)

type createSignalRequest struct {
	MarketID   uuid.UUID `json:"market_id"`
	Direction  string    `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	TakeProfit float64   `json:"take_profit"`
	StopLoss   float64   `json:"stop_loss"`
	Analysis   string    `json:"analysis"`
}

func (r *createSignalRequest) validate() error {
	if r.MarketID == uuid.Nil {
		return apperrors.ValidationError("market_id is required")
	}
	if r.Direction != domain.DirectionBuy && r.Direction != domain.DirectionSell {
		return apperrors.ValidationError("direction must be BUY or SELL").
			WithField("direction", r.Direction)
	}
	if r.EntryPrice <= 0 {
		return apperrors.ValidationError("entry_price must be positive")
	}
	if r.TakeProfit <= 0 || r.StopLoss <= 0 {
		return apperrors.ValidationError("take_profit and stop_loss must be positive")
	}
	return nil
}

type updateSignalRequest struct {
	TakeProfit float64 `json:"take_profit"`
	StopLoss   float64 `json:"stop_loss"`
	Analysis   string  `json:"analysis"`
}

type updateSignalStatusRequest struct {
	Status string `json:"status"`
}

// handleListSignals serves the active-signal list (cached), optionally
// filtered to one market or trader (uncached repository paths).
func (s *Server) handleListSignals(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		signals []domain.Signal
		err     error
	)
	switch {
	case c.QueryParam("market_id") != "":
		marketID, parseErr := uuid.Parse(c.QueryParam("market_id"))
		if parseErr != nil {
			return apperrors.ValidationError("invalid market_id").
				WithField("market_id", c.QueryParam("market_id"))
		}
		signals, err = s.signals.ListByMarket(ctx, marketID)
	case c.QueryParam("trader_id") != "":
		traderID, parseErr := uuid.Parse(c.QueryParam("trader_id"))
		if parseErr != nil {
			return apperrors.ValidationError("invalid trader_id").
				WithField("trader_id", c.QueryParam("trader_id"))
		}
		signals, err = s.signals.ListByTrader(ctx, traderID)
	default:
		signals, err = s.cache.ListActive(ctx)
	}
	if err != nil {
		return apperrors.InternalError("failed to list signals", err)
	}

	if signals == nil {
		signals = []domain.Signal{}
	}
	return c.JSON(http.StatusOK, signals)
}

func (s *Server) handleGetSignal(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid signal ID").WithField("id", c.Param("id"))
	}

	signal, err := s.signals.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSignalNotFound) {
			return apperrors.NotFoundError("signal not found").WithField("id", id.String())
		}
		return apperrors.InternalError("failed to load signal", err)
	}
	return c.JSON(http.StatusOK, signal)
}

func (s *Server) handleTraderStats(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid trader ID").WithField("id", c.Param("id"))
	}

	stats, err := s.signals.TraderStats(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return apperrors.NotFoundError("trader not found").WithField("id", id.String())
		}
		return apperrors.InternalError("failed to load trader stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCreateSignal(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}

	var req createSignalRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	req.Direction = strings.ToUpper(req.Direction)
	if err := req.validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	signal := &domain.Signal{
		TraderID:   trader,
		MarketID:   req.MarketID,
		Direction:  req.Direction,
		EntryPrice: req.EntryPrice,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Analysis:   req.Analysis,
		Status:     domain.SignalStatusActive,
	}

	created, err := s.signals.Create(ctx, signal)
	if err != nil {
		if errors.Is(err, domain.ErrMarketNotFound) {
			return apperrors.NotFoundError("market not found").
				WithField("market_id", req.MarketID.String())
		}
		return apperrors.InternalError("failed to create signal", err)
	}

	// Broadcast strictly after the commit. Outcome never touches the response.
	s.cache.Invalidate(ctx)
	s.emitter.EmitNewSignal(created)

	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateSignal(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid signal ID").WithField("id", c.Param("id"))
	}

	var req updateSignalRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.TakeProfit <= 0 || req.StopLoss <= 0 {
		return apperrors.ValidationError("take_profit and stop_loss must be positive")
	}

	ctx := c.Request().Context()
	updated, err := s.signals.Update(ctx, id, trader, domain.SignalUpdate{
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		Analysis:   req.Analysis,
	})
	if err != nil {
		return signalMutationError(err, id)
	}

	s.cache.Invalidate(ctx)
	s.emitter.EmitSignalUpdate(updated)

	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleUpdateSignalStatus(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid signal ID").WithField("id", c.Param("id"))
	}

	var req updateSignalStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	status := strings.ToUpper(req.Status)
	switch status {
	case domain.SignalStatusActive, domain.SignalStatusClosed, domain.SignalStatusCancelled:
	default:
		return apperrors.ValidationError("status must be ACTIVE, CLOSED or CANCELLED").
			WithField("status", req.Status)
	}

	ctx := c.Request().Context()
	updated, err := s.signals.UpdateStatus(ctx, id, trader, status)
	if err != nil {
		return signalMutationError(err, id)
	}

	s.cache.Invalidate(ctx)
	s.emitter.EmitSignalUpdate(updated)

	return c.JSON(http.StatusOK, updated)
}

func (s *Server) handleDeleteSignal(c echo.Context) error {
	trader, err := traderID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid signal ID").WithField("id", c.Param("id"))
	}

	ctx := c.Request().Context()
	if err := s.signals.Delete(ctx, id, trader); err != nil {
		return signalMutationError(err, id)
	}

	s.cache.Invalidate(ctx)
	s.emitter.EmitSignalDelete(id)

	return c.NoContent(http.StatusNoContent)
}

func signalMutationError(err error, id uuid.UUID) error {
	switch {
	case errors.Is(err, domain.ErrSignalNotFound):
		return apperrors.NotFoundError("signal not found").WithField("id", id.String())
	case errors.Is(err, domain.ErrNotSignalOwner):
		return apperrors.ForbiddenError("signal belongs to another trader").
			WithField("id", id.String())
	default:
		return apperrors.InternalError("signal mutation failed", err).
			WithField("id", id.String())
	}
}
