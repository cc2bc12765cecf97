// Package services holds the application services behind the HTTP
// transport, bridging the dataset cache, analytics and export layers.
package services

import (
	"context"
	"log/slog"
	"strings"

	"gsewatch/internal/dataprocessing"
	"gsewatch/internal/exporter"
	"gsewatch/pkg/contracts/domain"
)

// MarketService serves market data views over the cached dataset.
type MarketService struct {
	cache    *dataprocessing.Cache
	exporter *exporter.MarketExporter
	logger   *slog.Logger
}

// NewMarketService creates a market service.
func NewMarketService(cache *dataprocessing.Cache, exp *exporter.MarketExporter, logger *slog.Logger) *MarketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketService{
		cache:    cache,
		exporter: exp,
		logger:   logger.With(slog.String("component", "market_service")),
	}
}

// MarketData returns the full market document built from the cached
// dataset.
func (s *MarketService) MarketData(ctx context.Context) (*domain.MarketData, error) {
	ds, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.exporter.Build(ctx, ds), nil
}

// Stock returns one symbol's document, or false when the symbol has no
// ledger. Lookup is case-insensitive.
func (s *MarketService) Stock(ctx context.Context, symbol string) (*domain.StockData, bool, error) {
	md, err := s.MarketData(ctx)
	if err != nil {
		return nil, false, err
	}
	upper := strings.ToUpper(strings.TrimSpace(symbol))
	for i := range md.Stocks {
		if md.Stocks[i].Symbol == upper {
			return &md.Stocks[i], true, nil
		}
	}
	return nil, false, nil
}

// Refresh forces a dataset reload and returns the rebuilt document.
func (s *MarketService) Refresh(ctx context.Context) (*domain.MarketData, error) {
	ds, err := s.cache.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "market data refreshed",
		slog.Int("symbols", len(ds)))
	return s.exporter.Build(ctx, ds), nil
}
