package subscriber

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// State is the connection state of a Subscriber.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

const (
	defaultReconnectDelay       = time.Second
	defaultMaxReconnectDelay    = 5 * time.Second
	defaultMaxReconnectAttempts = 5
)

// Handler receives the data part of an envelope for one event.
type Handler func(data json.RawMessage)

// Listener is an opaque registration handle, used to remove a handler again.
type Listener struct {
	fn Handler
}

// DialFunc opens a WebSocket connection to the given URL.
type DialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

func defaultDial(ctx context.Context, url string) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// Option configures a Subscriber.
type Option func(*Subscriber)

// WithClock injects a clock, used for reconnect backoff timers.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Subscriber) { s.clock = clock }
}

// WithDialFunc replaces the WebSocket dialer.
func WithDialFunc(dial DialFunc) Option {
	return func(s *Subscriber) { s.dial = dial }
}

// WithReconnectDelay sets the initial reconnect delay.
func WithReconnectDelay(d time.Duration) Option {
	return func(s *Subscriber) { s.reconnectDelay = d }
}

// WithMaxReconnectDelay caps the exponential backoff.
func WithMaxReconnectDelay(d time.Duration) Option {
	return func(s *Subscriber) { s.maxReconnectDelay = d }
}

// WithMaxReconnectAttempts sets how many consecutive failures are tolerated
// before the subscriber gives up until the next explicit Connect.
func WithMaxReconnectAttempts(n int) Option {
	return func(s *Subscriber) { s.maxReconnectAttempts = n }
}

// Subscriber maintains one live connection to the signal feed.
type Subscriber struct {
	url  string
	dial DialFunc

	clock                clockwork.Clock
	reconnectDelay       time.Duration
	maxReconnectDelay    time.Duration
	maxReconnectAttempts int

	mu        sync.Mutex
	listeners map[string][]*Listener
	state     State
	conn      *websocket.Conn
	cancel    context.CancelFunc
	running   bool
}

// New creates a subscriber for the given feed URL. It does not connect;
// call Connect to start the connection loop.
func New(url string, opts ...Option) *Subscriber {
	s := &Subscriber{
		url:                  url,
		dial:                 defaultDial,
		clock:                clockwork.NewRealClock(),
		reconnectDelay:       defaultReconnectDelay,
		maxReconnectDelay:    defaultMaxReconnectDelay,
		maxReconnectAttempts: defaultMaxReconnectAttempts,
		listeners:            make(map[string][]*Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current connection state.
func (s *Subscriber) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// On registers a handler for the named event and returns its handle.
// Registration is independent of connection state: handlers registered while
// disconnected fire after the next successful connect.
func (s *Subscriber) On(event string, fn Handler) *Listener {
	l := &Listener{fn: fn}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], l)
	return l
}

// Off removes a previously registered handler. Unknown handles are ignored.
func (s *Subscriber) Off(event string, l *Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	registered := s.listeners[event]
	for i, candidate := range registered {
		if candidate == l {
			s.listeners[event] = append(registered[:i:i], registered[i+1:]...)
			break
		}
	}
	if len(s.listeners[event]) == 0 {
		delete(s.listeners, event)
	}
}

// Connect starts the connection loop. Calling Connect while the loop is
// already running is a no-op. After the subscriber has given up (reconnect
// attempts exhausted) or been disconnected, Connect starts it fresh.
func (s *Subscriber) Connect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true
	s.state = StateConnecting

	go s.run(ctx)
}

// Disconnect is terminal: it stops the connection loop, closes the socket,
// clears all listeners, and suppresses any pending reconnect. A later
// Connect starts from a clean slate (listeners must be re-registered).
func (s *Subscriber) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.listeners = make(map[string][]*Listener)
	s.running = false
	s.state = StateDisconnected
}

func (s *Subscriber) run(ctx context.Context) {
	attempts := 0

	for {
		s.setState(StateConnecting)
		conn, err := s.dial(ctx, s.url)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			attempts++
			slog.Debug("Feed connect failed", "url", s.url, "attempt", attempts, "error", err)
			if s.giveUpOrWait(ctx, attempts) {
				return
			}
			continue
		}

		attempts = 0
		s.adoptConn(conn)
		s.setState(StateConnected)
		slog.Debug("Feed connected", "url", s.url)

		s.readLoop(conn)
		s.dropConn()

		if ctx.Err() != nil {
			return
		}

		attempts++
		slog.Debug("Feed connection lost", "url", s.url)
		if s.giveUpOrWait(ctx, attempts) {
			return
		}
	}
}

// giveUpOrWait applies the retry policy after the attempts-th consecutive
// failure. It reports true if the loop should stop, either because the
// attempt budget is spent or the context was cancelled. Otherwise it has
// slept the backoff delay and the caller retries.
func (s *Subscriber) giveUpOrWait(ctx context.Context, attempts int) bool {
	if attempts >= s.maxReconnectAttempts {
		slog.Warn("Feed reconnect attempts exhausted", "url", s.url, "attempts", attempts)
		s.stopLoop()
		return true
	}

	s.setState(StateDisconnected)

	timer := s.clock.NewTimer(s.backoffDelay(attempts))
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return false
	case <-ctx.Done():
		return true
	}
}

// backoffDelay doubles per consecutive failure, capped at maxReconnectDelay.
func (s *Subscriber) backoffDelay(attempts int) time.Duration {
	delay := s.reconnectDelay
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= s.maxReconnectDelay {
			return s.maxReconnectDelay
		}
	}
	if delay > s.maxReconnectDelay {
		return s.maxReconnectDelay
	}
	return delay
}

func (s *Subscriber) readLoop(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(msg)
	}
}

// dispatch decodes one envelope and fires the listeners for its event name.
// Unknown event names are ignored, not errors.
func (s *Subscriber) dispatch(msg []byte) {
	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		slog.Debug("Discarding malformed feed message", "error", err)
		return
	}

	s.mu.Lock()
	registered := s.listeners[envelope.Event]
	handlers := make([]Handler, len(registered))
	for i, l := range registered {
		handlers[i] = l.fn
	}
	s.mu.Unlock()

	for _, fn := range handlers {
		fn(envelope.Data)
	}
}

func (s *Subscriber) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.state = state
}

func (s *Subscriber) adoptConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		// Disconnect raced the dial; close the late connection.
		_ = conn.Close()
		return
	}
	s.conn = conn
}

func (s *Subscriber) dropConn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

func (s *Subscriber) stopLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.state = StateDisconnected
}
