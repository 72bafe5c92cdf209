package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/eyupilis/trading-platform/internal/broadcast"
	"github.com/eyupilis/trading-platform/internal/config"
	"github.com/eyupilis/trading-platform/internal/domain"
)

const testJWTSecret = "test-secret-0123456789abcdef0123456789"

var errUnexpectedCall = errors.New("unexpected repository call")

// --- repository mocks ---

type mockSignalRepo struct {
	createFn       func(ctx context.Context, signal *domain.Signal) (*domain.Signal, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Signal, error)
	listActiveFn   func(ctx context.Context) ([]domain.Signal, error)
	listByMarketFn func(ctx context.Context, marketID uuid.UUID) ([]domain.Signal, error)
	listByTraderFn func(ctx context.Context, traderID uuid.UUID) ([]domain.Signal, error)
	updateFn       func(ctx context.Context, id, traderID uuid.UUID, update domain.SignalUpdate) (*domain.Signal, error)
	updateStatusFn func(ctx context.Context, id, traderID uuid.UUID, status string) (*domain.Signal, error)
	deleteFn       func(ctx context.Context, id, traderID uuid.UUID) error
	traderStatsFn  func(ctx context.Context, traderID uuid.UUID) (*domain.TraderStats, error)
}

func (m *mockSignalRepo) Create(ctx context.Context, signal *domain.Signal) (*domain.Signal, error) {
	if m.createFn == nil {
		return nil, errUnexpectedCall
	}
	return m.createFn(ctx, signal)
}

func (m *mockSignalRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Signal, error) {
	if m.getByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockSignalRepo) ListActive(ctx context.Context) ([]domain.Signal, error) {
	if m.listActiveFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listActiveFn(ctx)
}

func (m *mockSignalRepo) ListByMarket(ctx context.Context, marketID uuid.UUID) ([]domain.Signal, error) {
	if m.listByMarketFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listByMarketFn(ctx, marketID)
}

func (m *mockSignalRepo) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]domain.Signal, error) {
	if m.listByTraderFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listByTraderFn(ctx, traderID)
}

func (m *mockSignalRepo) Update(ctx context.Context, id, traderID uuid.UUID, update domain.SignalUpdate) (*domain.Signal, error) {
	if m.updateFn == nil {
		return nil, errUnexpectedCall
	}
	return m.updateFn(ctx, id, traderID, update)
}

func (m *mockSignalRepo) UpdateStatus(ctx context.Context, id, traderID uuid.UUID, status string) (*domain.Signal, error) {
	if m.updateStatusFn == nil {
		return nil, errUnexpectedCall
	}
	return m.updateStatusFn(ctx, id, traderID, status)
}

func (m *mockSignalRepo) Delete(ctx context.Context, id, traderID uuid.UUID) error {
	if m.deleteFn == nil {
		return errUnexpectedCall
	}
	return m.deleteFn(ctx, id, traderID)
}

func (m *mockSignalRepo) TraderStats(ctx context.Context, traderID uuid.UUID) (*domain.TraderStats, error) {
	if m.traderStatsFn == nil {
		return nil, errUnexpectedCall
	}
	return m.traderStatsFn(ctx, traderID)
}

type mockTradeRepo struct {
	createFn       func(ctx context.Context, trade *domain.Trade) (*domain.Trade, error)
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Trade, error)
	listBySignalFn func(ctx context.Context, signalID uuid.UUID) ([]domain.Trade, error)
	listByTraderFn func(ctx context.Context, traderID uuid.UUID) ([]domain.Trade, error)
	closeFn        func(ctx context.Context, id, traderID uuid.UUID, close domain.TradeClose) (*domain.Trade, error)
	deleteFn       func(ctx context.Context, id, traderID uuid.UUID) error
}

func (m *mockTradeRepo) Create(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	if m.createFn == nil {
		return nil, errUnexpectedCall
	}
	return m.createFn(ctx, trade)
}

func (m *mockTradeRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trade, error) {
	if m.getByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockTradeRepo) ListBySignal(ctx context.Context, signalID uuid.UUID) ([]domain.Trade, error) {
	if m.listBySignalFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listBySignalFn(ctx, signalID)
}

func (m *mockTradeRepo) ListByTrader(ctx context.Context, traderID uuid.UUID) ([]domain.Trade, error) {
	if m.listByTraderFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listByTraderFn(ctx, traderID)
}

func (m *mockTradeRepo) Close(ctx context.Context, id, traderID uuid.UUID, close domain.TradeClose) (*domain.Trade, error) {
	if m.closeFn == nil {
		return nil, errUnexpectedCall
	}
	return m.closeFn(ctx, id, traderID, close)
}

func (m *mockTradeRepo) Delete(ctx context.Context, id, traderID uuid.UUID) error {
	if m.deleteFn == nil {
		return errUnexpectedCall
	}
	return m.deleteFn(ctx, id, traderID)
}

type mockMarketRepo struct {
	getByIDFn     func(ctx context.Context, id uuid.UUID) (*domain.Market, error)
	getBySymbolFn func(ctx context.Context, symbol string) (*domain.Market, error)
	listFn        func(ctx context.Context) ([]domain.Market, error)
}

func (m *mockMarketRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Market, error) {
	if m.getByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}

func (m *mockMarketRepo) GetBySymbol(ctx context.Context, symbol string) (*domain.Market, error) {
	if m.getBySymbolFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getBySymbolFn(ctx, symbol)
}

func (m *mockMarketRepo) List(ctx context.Context) ([]domain.Market, error) {
	if m.listFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listFn(ctx)
}

type mockUserRepo struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.getByIDFn == nil {
		return nil, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}

// --- broadcast and cache doubles ---

type emitted struct {
	event string
	data  any
}

type recordingEmitter struct {
	events []emitted
}

func (r *recordingEmitter) EmitNewSignal(signal *domain.Signal) broadcast.Delivery {
	r.events = append(r.events, emitted{domain.EventNewSignal, signal})
	return broadcast.Delivery{}
}

func (r *recordingEmitter) EmitSignalUpdate(signal *domain.Signal) broadcast.Delivery {
	r.events = append(r.events, emitted{domain.EventSignalUpdate, signal})
	return broadcast.Delivery{}
}

func (r *recordingEmitter) EmitSignalDelete(signalID uuid.UUID) broadcast.Delivery {
	r.events = append(r.events, emitted{domain.EventSignalDelete, signalID})
	return broadcast.Delivery{}
}

func (r *recordingEmitter) EmitNewTrade(trade *domain.Trade) broadcast.Delivery {
	r.events = append(r.events, emitted{domain.EventNewTrade, trade})
	return broadcast.Delivery{}
}

func (r *recordingEmitter) EmitTradeUpdate(trade *domain.Trade) broadcast.Delivery {
	r.events = append(r.events, emitted{domain.EventTradeUpdate, trade})
	return broadcast.Delivery{}
}

func (r *recordingEmitter) EmitTradeDelete(tradeID uuid.UUID) broadcast.Delivery {
	r.events = append(r.events, emitted{domain.EventTradeDelete, tradeID})
	return broadcast.Delivery{}
}

func (r *recordingEmitter) eventNames() []string {
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.event
	}
	return names
}

type fakeCache struct {
	signals       []domain.Signal
	err           error
	invalidations int
}

func (f *fakeCache) ListActive(ctx context.Context) ([]domain.Signal, error) {
	return f.signals, f.err
}

func (f *fakeCache) Invalidate(ctx context.Context) {
	f.invalidations++
}

type fakeHub struct {
	mu          sync.Mutex
	registerErr error
	registered  int
	unregisters int
}

func (f *fakeHub) Register(conn *websocket.Conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered++
	return nil
}

func (f *fakeHub) Unregister(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unregisters++
}

func (f *fakeHub) ClientCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered - f.unregisters
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

// --- server construction ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		Port:                "0",
		JWTSecret:           testJWTSecret,
		WSMaxConnections:    100,
		WSMaxPerIP:          10,
		WSConnectionsPerSec: 100,
		WSConnectionBurst:   100,
		SignalCacheTTL:      30 * time.Second,
	}
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	if deps.Cache == nil {
		deps.Cache = &fakeCache{}
	}
	if deps.Emitter == nil {
		deps.Emitter = &recordingEmitter{}
	}
	if deps.Hub == nil {
		deps.Hub = &fakeHub{}
	}
	if deps.DB == nil {
		deps.DB = &fakePinger{}
	}
	if deps.Redis == nil {
		deps.Redis = &fakePinger{}
	}
	return NewServer(testConfig(), deps)
}

func mintToken(t *testing.T, traderID uuid.UUID, role string) string {
	t.Helper()
	claims := traderClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   traderID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
