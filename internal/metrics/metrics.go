// Package metrics defines the Prometheus collectors for the signal platform.
// All metrics are registered via promauto at package init and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Hub metrics
var (
	// HubConnectedClients tracks the current number of registered WebSocket clients
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_clients",
			Help: "Current number of registered WebSocket clients",
		},
	)

	// HubBroadcastsTotal tracks broadcasts by event name
	HubBroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_broadcasts_total",
			Help: "Total broadcasts by event name",
		},
		[]string{"event"},
	)

	// HubMessagesDroppedTotal tracks messages dropped because a client's send buffer was full
	HubMessagesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_messages_dropped_total",
			Help: "Total messages dropped due to full client send buffers",
		},
	)

	// HubSerializationErrorsTotal tracks broadcast payloads that failed to marshal
	HubSerializationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_serialization_errors_total",
			Help: "Total broadcast payloads that failed JSON serialization",
		},
	)

	// HubStopTimeoutsTotal tracks hub shutdowns that exceeded the stop timeout
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Total hub shutdowns that exceeded the graceful stop timeout",
		},
	)
)

// WebSocket connection metrics
var (
	// WebSocketConnectionsTotal tracks accepted WebSocket connections
	WebSocketConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_connections_total",
			Help: "Total accepted WebSocket connections",
		},
	)

	// WebSocketConnectionsRejected tracks rejected connection attempts by reason
	WebSocketConnectionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_connections_rejected_total",
			Help: "Total rejected WebSocket connection attempts by reason",
		},
		[]string{"reason"},
	)

	// WebSocketMessageSendDuration tracks per-message write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks keepalive pings that failed to send
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total WebSocket keepalive ping failures",
		},
	)
)

// Cache metrics
var (
	// SignalCacheHits tracks active-signal list cache hits
	SignalCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_hits_total",
			Help: "Total active-signal list cache hits",
		},
	)

	// SignalCacheMisses tracks active-signal list cache misses
	SignalCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signal_cache_misses_total",
			Help: "Total active-signal list cache misses",
		},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks total Redis operations by status
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total Redis operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis operation latency in seconds
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed Redis connection attempts
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redis_connection_errors_total",
			Help: "Total failed Redis connection attempts",
		},
	)
)

// Broadcast outcome metrics
var (
	// EmitFailuresTotal tracks emitter calls where no client received the message
	// despite clients being registered. Observability only: emit failures never
	// affect the HTTP response of the originating request.
	EmitFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emit_failures_total",
			Help: "Total per-client delivery failures by event name",
		},
		[]string{"event"},
	)
)
