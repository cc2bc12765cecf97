package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsewatch/internal/config"
	"gsewatch/internal/dataprocessing"
	"gsewatch/internal/exporter"
	"gsewatch/internal/ledger"
	"gsewatch/pkg/contracts/domain"
)

func newTestService(t *testing.T) (*MarketService, *ledger.Store) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	store := ledger.NewStore(paths, nil)
	loader := dataprocessing.NewLoader(store, nil)
	cache := dataprocessing.NewCache(loader, paths.SeedsDir, time.Hour, nil)
	engine := dataprocessing.NewEngine(nil)
	exp := exporter.NewMarketExporter(engine, config.DefaultListings(),
		config.ExportConfig{HistoryLimit: 500, MoversLimit: 5}, nil)
	return NewMarketService(cache, exp, nil), store
}

func saveQuotes(t *testing.T, store *ledger.Store, symbol string, closes ...float64) {
	t.Helper()
	quotes := make([]domain.Quote, len(closes))
	for i, c := range closes {
		quotes[len(closes)-1-i] = domain.Quote{
			Symbol: symbol,
			Date:   time.Date(2024, 3, 10+i, 0, 0, 0, 0, time.UTC),
			Close:  c,
		}
	}
	require.NoError(t, store.Save(context.Background(), &domain.Ledger{Symbol: symbol, Quotes: quotes}))
}

func TestMarketDataFromLedgers(t *testing.T) {
	svc, store := newTestService(t)
	saveQuotes(t, store, "GCB", 5.50, 5.60)
	saveQuotes(t, store, "MTNGH", 1.50)

	md, err := svc.MarketData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, md.StockCount)
	assert.Equal(t, "2024-03-11", md.LastUpdated)
}

func TestStockLookupCaseInsensitive(t *testing.T) {
	svc, store := newTestService(t)
	saveQuotes(t, store, "GCB", 5.50)

	stock, found, err := svc.Stock(context.Background(), " gcb ")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "GCB", stock.Symbol)
	assert.Equal(t, 5.50, stock.Price)

	_, found, err = svc.Stock(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRefreshPicksUpNewLedgers(t *testing.T) {
	svc, store := newTestService(t)
	saveQuotes(t, store, "GCB", 5.50)

	md, err := svc.MarketData(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, md.StockCount)

	saveQuotes(t, store, "MTNGH", 1.50)
	md, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, md.StockCount)
}
