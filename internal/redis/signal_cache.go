package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/eyupilis/trading-platform/internal/domain"
	"github.com/eyupilis/trading-platform/internal/metrics"
)

const activeSignalsKey = "signals:active"

// cacheStore is the subset of redis.Cmdable the signal cache needs.
type cacheStore interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// activeSignalLister is the slice of domain.SignalRepository the cache fronts.
type activeSignalLister interface {
	ListActive(ctx context.Context) ([]domain.Signal, error)
}

// SignalCache provides read-through caching of the active-signal list:
// Redis → PostgreSQL. Any signal mutation must call Invalidate so the
// next read repopulates the cache.
type SignalCache struct {
	rdb     cacheStore
	signals activeSignalLister
	ttl     time.Duration
}

// NewSignalCache creates a read-through active-signal cache with the given TTL.
func NewSignalCache(rdb cacheStore, signals activeSignalLister, ttl time.Duration) *SignalCache {
	return &SignalCache{rdb: rdb, signals: signals, ttl: ttl}
}

// ListActive returns all active signals, served from Redis when possible.
// Redis failures fall through to PostgreSQL and are never surfaced to callers.
func (c *SignalCache) ListActive(ctx context.Context) ([]domain.Signal, error) {
	data, err := c.rdb.Get(ctx, activeSignalsKey).Bytes()
	if err == nil {
		var signals []domain.Signal
		if err := json.Unmarshal(data, &signals); err != nil {
			slog.Warn("Failed to unmarshal cached signal list, falling through to PostgreSQL",
				"error", err)
		} else {
			metrics.SignalCacheHits.Inc()
			return signals, nil
		}
	} else if !errors.Is(err, goredis.Nil) {
		slog.Warn("Redis signal cache GET failed, falling through to PostgreSQL", "error", err)
	}

	signals, err := c.signals.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("active signal lookup failed: %w", err)
	}

	metrics.SignalCacheMisses.Inc()

	// Populate Redis cache (best-effort)
	if encoded, err := json.Marshal(signals); err == nil {
		if err := c.rdb.Set(ctx, activeSignalsKey, encoded, c.ttl).Err(); err != nil {
			slog.Warn("Failed to populate Redis signal cache", "error", err)
		}
	}

	return signals, nil
}

// Invalidate removes the cached active-signal list. Best-effort: a failed
// delete only shortens staleness to the cache TTL.
func (c *SignalCache) Invalidate(ctx context.Context) {
	if err := c.rdb.Del(ctx, activeSignalsKey).Err(); err != nil {
		slog.Warn("Failed to invalidate signal cache", "error", err)
	}
}
