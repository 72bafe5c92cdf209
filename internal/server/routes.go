package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// WebSocket feed (public; delivery is best-effort, see broadcast package)
	s.echo.GET("/ws", s.handleWebSocket)

	api := s.echo.Group("/api/v1")

	// Public reads
	api.GET("/signals", s.handleListSignals)
	api.GET("/signals/:id", s.handleGetSignal)
	api.GET("/traders/:id", s.handleGetTrader)
	api.GET("/traders/:id/stats", s.handleTraderStats)
	api.GET("/trades", s.handleListTrades)
	api.GET("/trades/:id", s.handleGetTrade)
	api.GET("/markets", s.handleListMarkets)
	api.GET("/markets/:symbol", s.handleGetMarket)

	// Trader mutations (bearer token required)
	api.POST("/signals", s.handleCreateSignal, s.requireTrader)
	api.PUT("/signals/:id", s.handleUpdateSignal, s.requireTrader)
	api.PATCH("/signals/:id/status", s.handleUpdateSignalStatus, s.requireTrader)
	api.DELETE("/signals/:id", s.handleDeleteSignal, s.requireTrader)

	api.POST("/trades", s.handleCreateTrade, s.requireTrader)
	api.POST("/trades/:id/close", s.handleCloseTrade, s.requireTrader)
	api.DELETE("/trades/:id", s.handleDeleteTrade, s.requireTrader)
}
