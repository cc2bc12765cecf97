package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gsewatch/internal/config"
	"gsewatch/internal/dataprocessing"
	"gsewatch/pkg/contracts/domain"
)

// MarketExporter builds the market data JSON document from a dataset.
type MarketExporter struct {
	engine   *dataprocessing.Engine
	listings *config.Listings
	cfg      config.ExportConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewMarketExporter creates an exporter with the given analytics engine
// and listing tables.
func NewMarketExporter(engine *dataprocessing.Engine, listings *config.Listings, cfg config.ExportConfig, logger *slog.Logger) *MarketExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketExporter{
		engine:   engine,
		listings: listings,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "exporter")),
		now:      time.Now,
	}
}

// Build assembles the export document: per-symbol snapshots with a
// bounded trailing history, plus the market-wide summary. Symbols with
// an empty history are omitted.
func (e *MarketExporter) Build(ctx context.Context, ds dataprocessing.Dataset) *domain.MarketData {
	stocks := make([]domain.StockData, 0, len(ds))
	for _, symbol := range ds.Symbols() {
		quotes := ds[symbol]
		snap := e.engine.Snapshot(quotes)
		if snap == nil {
			continue
		}
		stocks = append(stocks, domain.StockData{
			Symbol:        symbol,
			Name:          e.listings.Name(symbol),
			Sector:        e.listings.Sector(symbol),
			Price:         snap.CurrentPrice,
			PrevClose:     snap.PrevClose,
			Change:        snap.DailyChange,
			ChangePercent: domain.Value(snap.DailyChangePct),
			YearHigh:      snap.YearHigh,
			YearLow:       snap.YearLow,
			Volume:        snap.Volume,
			AvgVolume10D:  int64(domain.Value(snap.AvgVolume10D)),
			AvgVolume30D:  int64(domain.Value(snap.AvgVolume30D)),
			Metrics:       snap,
			History:       e.history(quotes),
		})
	}

	md := &domain.MarketData{
		GeneratedAt: e.now().UTC(),
		StockCount:  len(stocks),
		Stocks:      stocks,
		Summary:     e.summarize(stocks),
	}
	if latest := ds.LatestDate(); !latest.IsZero() {
		md.LastUpdated = latest.Format("2006-01-02")
	}
	md.Summary.LatestDate = md.LastUpdated
	return md
}

// history converts the most recent rows (up to the configured limit)
// into export points, oldest first.
func (e *MarketExporter) history(quotes []domain.Quote) []domain.HistoryPoint {
	limit := e.cfg.HistoryLimit
	if limit > 0 && len(quotes) > limit {
		quotes = quotes[len(quotes)-limit:]
	}

	points := make([]domain.HistoryPoint, 0, len(quotes))
	for i, q := range quotes {
		p := domain.HistoryPoint{
			Date:   q.Day().Format("2006-01-02"),
			Close:  q.Close,
			Change: domain.Value(q.Change),
		}
		if q.Volume != nil {
			p.Volume = *q.Volume
		}
		prev := domain.Value(q.PrevClose)
		if prev == 0 && i > 0 {
			prev = quotes[i-1].Close
		}
		if prev > 0 {
			p.ChangePercent = p.Change / prev * 100
		}
		points = append(points, p)
	}
	return points
}

// summarize computes the market-wide summary from the built stock
// documents: top gainers and losers by daily percentage change, plus
// total traded volume and turnover on the latest day.
func (e *MarketExporter) summarize(stocks []domain.StockData) domain.MarketSummary {
	summary := domain.MarketSummary{TotalStocks: len(stocks)}

	var movers []domain.StockData
	for _, s := range stocks {
		summary.TotalVolume += s.Volume
		if s.Metrics != nil {
			summary.TotalTurnover += s.Metrics.Turnover
		}
		if s.ChangePercent != 0 {
			movers = append(movers, s)
		}
	}

	sort.Slice(movers, func(i, j int) bool {
		return movers[i].ChangePercent > movers[j].ChangePercent
	})

	limit := e.cfg.MoversLimit
	if limit <= 0 {
		limit = 5
	}
	for _, s := range movers {
		if s.ChangePercent <= 0 || len(summary.Gainers) >= limit {
			break
		}
		summary.Gainers = append(summary.Gainers, domain.MoverEntry{
			Symbol: s.Symbol, Close: s.Price, Change: s.ChangePercent,
		})
	}
	for i := len(movers) - 1; i >= 0; i-- {
		s := movers[i]
		if s.ChangePercent >= 0 || len(summary.Losers) >= limit {
			break
		}
		summary.Losers = append(summary.Losers, domain.MoverEntry{
			Symbol: s.Symbol, Close: s.Price, Change: s.ChangePercent,
		})
	}
	return summary
}

// Write marshals the document and writes it atomically to path,
// creating parent directories as needed.
func (e *MarketExporter) Write(ctx context.Context, md *domain.MarketData, path string) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal market data: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".market.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp export: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp export: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp export: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace export: %w", err)
	}

	e.logger.InfoContext(ctx, "market data exported",
		slog.String("path", path),
		slog.Int("stocks", md.StockCount),
		slog.Int("bytes", len(data)))
	return nil
}
