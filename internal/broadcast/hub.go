package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/eyupilis/trading-platform/internal/domain"
	"github.com/eyupilis/trading-platform/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// Delivery reports the outcome of one broadcast: how many clients had the
// message enqueued and how many dropped it because their buffer was full.
// Counts are enqueue-level, not acknowledgments.
type Delivery struct {
	Sent   int
	Failed int
}

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type registerCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	event        string
	payload      []byte
	replyChannel chan Delivery
}

type clientCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is the connection registry and broadcast engine. All state is owned by
// the single run goroutine; the exported methods communicate with it over the
// command channel, so register/unregister arriving mid-broadcast are ordered
// behind it instead of racing it.
type Hub struct {
	cmdCh       chan hubCmd
	clients     map[*websocket.Conn]*clientWriter
	clock       clockwork.Clock
	done        chan struct{}
	stopTimeout time.Duration
}

// NewHub creates a hub and starts its actor goroutine.
func NewHub(clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:       make(chan hubCmd, 256),
		clients:     make(map[*websocket.Conn]*clientWriter),
		clock:       clock,
		done:        make(chan struct{}),
		stopTimeout: stopTimeout,
	}
	go h.run()
	return h
}

// Register adds a connection to the hub. Registering the same connection
// twice is a no-op. There is no capacity limit here: connection admission is
// the upgrade endpoint's concern.
func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- registerCmd{connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection from the hub and stops its writer.
// Safe to call multiple times and for connections that were never registered.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- unregisterCmd{connection: conn}
}

// Broadcast serializes one {event, data} envelope and delivers it to every
// registered connection. Per-client failures are absorbed: they show up in the
// returned Delivery but never as an error. A payload that cannot be serialized
// is logged and dropped; it does not affect future broadcasts.
func (h *Hub) Broadcast(event string, data any) Delivery {
	payload, err := json.Marshal(domain.Envelope{Event: event, Data: data})
	if err != nil {
		slog.Error("Failed to marshal broadcast envelope", "event", event, "error", err)
		metrics.HubSerializationErrorsTotal.Inc()
		return Delivery{}
	}

	metrics.HubBroadcastsTotal.WithLabelValues(event).Inc()

	replyCh := make(chan Delivery, 1)
	h.cmdCh <- broadcastCmd{event: event, payload: payload, replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case delivery := <-replyCh:
		return delivery
	case <-timer.Chan():
		slog.Warn("Broadcast command timed out", "event", event, "timeout", commandTimeout)
		return Delivery{}
	}
}

// ClientCount returns the number of registered connections.
// Returns -1 if the command times out.
func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all client connections.
// Blocks until the actor goroutine has exited or the stop timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timer := h.clock.NewTimer(h.stopTimeout)
	defer timer.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", h.stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			h.closeAllClients("hub panic")
		}
	}()
	defer close(h.done)

	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			h.handleRegister(c)
		case unregisterCmd:
			h.handleUnregister(c.connection)
		case broadcastCmd:
			c.replyChannel <- h.handleBroadcast(c)
		case clientCountCmd:
			c.replyChannel <- len(h.clients)
		case stopCmd:
			h.handleStop()
			return
		default:
			slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (h *Hub) handleRegister(c registerCmd) {
	if _, exists := h.clients[c.connection]; exists {
		c.errorChannel <- nil
		return
	}

	h.clients[c.connection] = newClientWriter(c.connection, h.clock)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Client registered", "total_clients", len(h.clients))
	c.errorChannel <- nil
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.HubConnectedClients.Set(float64(len(h.clients)))

	slog.Debug("Client unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(c broadcastCmd) Delivery {
	var delivery Delivery
	for _, cw := range h.clients {
		select {
		case cw.sendChannel <- c.payload:
			delivery.Sent++
		default:
			// Buffer full: drop for this client only. The connection stays
			// registered; a dead peer is reaped by its read deadline.
			delivery.Failed++
			metrics.HubMessagesDroppedTotal.Inc()
		}
	}

	if delivery.Failed > 0 {
		slog.Warn("Broadcast dropped for slow clients",
			"event", c.event,
			"sent", delivery.Sent,
			"failed", delivery.Failed,
		)
	}

	return delivery
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "clients", len(h.clients))
	h.closeAllClients("Server shutting down")
}

// closeAllClients closes all client connections with the given reason.
// Used during panic recovery and graceful shutdown.
func (h *Hub) closeAllClients(reason string) {
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.HubConnectedClients.Set(0)
}
