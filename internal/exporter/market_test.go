package exporter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsewatch/internal/config"
	"gsewatch/internal/dataprocessing"
	"gsewatch/pkg/contracts/domain"
)

func newTestExporter(historyLimit int) *MarketExporter {
	cfg := config.ExportConfig{HistoryLimit: historyLimit, MoversLimit: 2}
	return NewMarketExporter(dataprocessing.NewEngine(nil), config.DefaultListings(), cfg, nil)
}

func series(symbol string, n int, close float64, changePct float64) []domain.Quote {
	quotes := make([]domain.Quote, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range quotes {
		quotes[i] = domain.Quote{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Close:  close,
			Volume: domain.Int64(1000),
		}
	}
	last := &quotes[n-1]
	prev := close / (1 + changePct/100)
	last.PrevClose = domain.Float64(prev)
	last.Change = domain.Float64(close - prev)
	return quotes
}

func TestBuildHistoryBound(t *testing.T) {
	e := newTestExporter(500)

	ds := dataprocessing.Dataset{"GCB": series("GCB", 600, 5.50, 0)}
	md := e.Build(context.Background(), ds)

	require.Len(t, md.Stocks, 1)
	assert.Len(t, md.Stocks[0].History, 500)
	// The bound keeps the most recent rows.
	last := md.Stocks[0].History[len(md.Stocks[0].History)-1]
	assert.Equal(t, md.LastUpdated, last.Date)
	assert.Equal(t, 600, md.Stocks[0].Metrics.DataPoints)
}

func TestBuildUsesListingMetadata(t *testing.T) {
	e := newTestExporter(500)

	ds := dataprocessing.Dataset{
		"GCB":  series("GCB", 1, 5.50, 0),
		"XYZW": series("XYZW", 1, 1.00, 0),
	}
	md := e.Build(context.Background(), ds)

	require.Len(t, md.Stocks, 2)
	assert.Equal(t, "GCB Bank Limited", md.Stocks[0].Name)
	assert.Equal(t, "Banking", md.Stocks[0].Sector)
	assert.Equal(t, "XYZW", md.Stocks[1].Name)
	assert.Equal(t, "General", md.Stocks[1].Sector)
}

func TestBuildSummaryMovers(t *testing.T) {
	e := newTestExporter(500)

	ds := dataprocessing.Dataset{
		"AAAA": series("AAAA", 2, 5.0, 4.0),
		"BBBB": series("BBBB", 2, 3.0, 9.0),
		"CCCC": series("CCCC", 2, 2.0, -5.0),
		"DDDD": series("DDDD", 2, 1.0, 0),
	}
	md := e.Build(context.Background(), ds)

	require.Len(t, md.Summary.Gainers, 2)
	assert.Equal(t, "BBBB", md.Summary.Gainers[0].Symbol)
	assert.Equal(t, "AAAA", md.Summary.Gainers[1].Symbol)

	require.Len(t, md.Summary.Losers, 1)
	assert.Equal(t, "CCCC", md.Summary.Losers[0].Symbol)

	assert.Equal(t, 4, md.Summary.TotalStocks)
	assert.Equal(t, int64(4000), md.Summary.TotalVolume)
}

func TestBuildSkipsEmptyHistories(t *testing.T) {
	e := newTestExporter(500)
	ds := dataprocessing.Dataset{"GCB": nil}
	md := e.Build(context.Background(), ds)
	assert.Empty(t, md.Stocks)
	assert.Zero(t, md.StockCount)
}

func TestWriteAtomicJSON(t *testing.T) {
	e := newTestExporter(500)
	ctx := context.Background()

	ds := dataprocessing.Dataset{"GCB": series("GCB", 3, 5.50, 2.0)}
	md := e.Build(ctx, ds)

	path := filepath.Join(t.TempDir(), "exports", "gse_data.json")
	require.NoError(t, e.Write(ctx, md, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded domain.MarketData
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.StockCount)
	assert.Equal(t, md.LastUpdated, decoded.LastUpdated)

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
