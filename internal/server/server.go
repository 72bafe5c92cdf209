package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eyupilis/trading-platform/internal/broadcast"
	"github.com/eyupilis/trading-platform/internal/config"
	"github.com/eyupilis/trading-platform/internal/domain"
	apperrors "github.com/eyupilis/trading-platform/internal/errors"
)

// connectionHub is the slice of broadcast.Hub the ws handler needs.
type connectionHub interface {
	Register(conn *websocket.Conn) error
	Unregister(conn *websocket.Conn)
	ClientCount() int
}

// eventEmitter is what mutation handlers use to publish after a commit.
type eventEmitter interface {
	EmitNewSignal(signal *domain.Signal) broadcast.Delivery
	EmitSignalUpdate(signal *domain.Signal) broadcast.Delivery
	EmitSignalDelete(signalID uuid.UUID) broadcast.Delivery
	EmitNewTrade(trade *domain.Trade) broadcast.Delivery
	EmitTradeUpdate(trade *domain.Trade) broadcast.Delivery
	EmitTradeDelete(tradeID uuid.UUID) broadcast.Delivery
}

// activeSignalCache fronts the signal repository's active list.
type activeSignalCache interface {
	ListActive(ctx context.Context) ([]domain.Signal, error)
	Invalidate(ctx context.Context)
}

// pinger is the minimal health-check surface of a backing store.
type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies carries everything the composition root injects into the server.
type Dependencies struct {
	Signals domain.SignalRepository
	Trades  domain.TradeRepository
	Markets domain.MarketRepository
	Users   domain.UserRepository
	Cache   activeSignalCache
	Hub     connectionHub
	Emitter eventEmitter
	DB      pinger
	Redis   pinger
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	signals   domain.SignalRepository
	trades    domain.TradeRepository
	markets   domain.MarketRepository
	users     domain.UserRepository
	cache     activeSignalCache
	hub       connectionHub
	emitter   eventEmitter
	db        pinger
	redis     pinger
	limits    *ConnectionLimits
	startTime time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:    e,
		config:  cfg,
		signals: deps.Signals,
		trades:  deps.Trades,
		markets: deps.Markets,
		users:   deps.Users,
		cache:   deps.Cache,
		hub:     deps.Hub,
		emitter: deps.Emitter,
		db:      deps.DB,
		redis:   deps.Redis,
		limits: NewConnectionLimits(cfg.WSMaxConnections, cfg.WSMaxPerIP,
			cfg.WSConnectionsPerSec, cfg.WSConnectionBurst),
		startTime: time.Now(),
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
