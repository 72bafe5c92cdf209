package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Market struct {
	ID         uuid.UUID `json:"id"`
	Symbol     string    `json:"symbol"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	BaseAsset  string    `json:"base_asset"`
	QuoteAsset string    `json:"quote_asset"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type MarketRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Market, error)
	GetBySymbol(ctx context.Context, symbol string) (*Market, error)
	List(ctx context.Context) ([]Market, error)
}
