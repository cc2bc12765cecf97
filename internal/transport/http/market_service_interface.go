package http

import (
	"context"

	"gsewatch/pkg/contracts/domain"
)

// MarketService is the contract the market handler depends on,
// implemented by services.MarketService. Kept as an interface so
// handler tests can substitute a stub.
type MarketService interface {
	MarketData(ctx context.Context) (*domain.MarketData, error)
	Stock(ctx context.Context, symbol string) (*domain.StockData, bool, error)
	Refresh(ctx context.Context) (*domain.MarketData, error)
}
