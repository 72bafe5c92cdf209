package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyupilis/trading-platform/internal/domain"
)

func TestListMarkets(t *testing.T) {
	repo := &mockMarketRepo{
		listFn: func(ctx context.Context) ([]domain.Market, error) {
			return []domain.Market{
				{ID: uuid.New(), Symbol: "BTCUSDT", Name: "Bitcoin / Tether"},
				{ID: uuid.New(), Symbol: "ETHUSDT", Name: "Ethereum / Tether"},
			}, nil
		},
	}
	srv := newTestServer(t, Dependencies{Markets: repo})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/markets", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeJSON[[]domain.Market](t, rec), 2)
}

func TestGetMarket_SymbolIsUppercased(t *testing.T) {
	repo := &mockMarketRepo{
		getBySymbolFn: func(ctx context.Context, symbol string) (*domain.Market, error) {
			assert.Equal(t, "BTCUSDT", symbol)
			return &domain.Market{ID: uuid.New(), Symbol: symbol}, nil
		},
	}
	srv := newTestServer(t, Dependencies{Markets: repo})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/markets/btcusdt", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMarket_NotFound(t *testing.T) {
	repo := &mockMarketRepo{
		getBySymbolFn: func(ctx context.Context, symbol string) (*domain.Market, error) {
			return nil, domain.ErrMarketNotFound
		},
	}
	srv := newTestServer(t, Dependencies{Markets: repo})

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/markets/NOPEUSD", nil, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
