package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/eyupilis/trading-platform/internal/broadcast"
	"github.com/eyupilis/trading-platform/internal/config"
	"github.com/eyupilis/trading-platform/internal/database"
	"github.com/eyupilis/trading-platform/internal/logging"
	"github.com/eyupilis/trading-platform/internal/redis"
	"github.com/eyupilis/trading-platform/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// runGracefulShutdown drains HTTP first so no new emits arrive, then stops
// the hub, which sends close frames to all connected clients.
func runGracefulShutdown(srv *server.Server, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	signalRepo := database.NewSignalRepo(pool)
	tradeRepo := database.NewTradeRepo(pool)
	marketRepo := database.NewMarketRepo(pool)
	userRepo := database.NewUserRepo(pool)

	signalCache := redis.NewSignalCache(redisClient.Underlying(), signalRepo, cfg.SignalCacheTTL)

	hub := broadcast.NewHub(clock)
	emitter := broadcast.NewEmitter(hub)

	srv := server.NewServer(cfg, server.Dependencies{
		Signals: signalRepo,
		Trades:  tradeRepo,
		Markets: marketRepo,
		Users:   userRepo,
		Cache:   signalCache,
		Hub:     hub,
		Emitter: emitter,
		DB:      pool,
		Redis:   redisClient,
	})

	done := runGracefulShutdown(srv, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
