package domain

import (
	"time"
)

// HistoryPoint is one trailing-history entry in the derived export.
type HistoryPoint struct {
	Date          string  `json:"date"`
	Close         float64 `json:"close"`
	Volume        int64   `json:"volume"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// StockData is the per-symbol document in the derived market export:
// the latest snapshot fields plus a bounded trailing history.
type StockData struct {
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Sector        string         `json:"sector"`
	Price         float64        `json:"price"`
	PrevClose     float64        `json:"prevClose"`
	Change        float64        `json:"change"`
	ChangePercent float64        `json:"changePercent"`
	YearHigh      float64        `json:"yearHigh"`
	YearLow       float64        `json:"yearLow"`
	Volume        int64          `json:"volume"`
	AvgVolume10D  int64          `json:"avgVolume10d"`
	AvgVolume30D  int64          `json:"avgVolume30d"`
	Metrics       *Snapshot      `json:"metrics,omitempty"`
	History       []HistoryPoint `json:"history"`
}

// MoverEntry is one row of the gainers/losers lists.
type MoverEntry struct {
	Symbol string  `json:"symbol"`
	Close  float64 `json:"close"`
	Change float64 `json:"change"`
}

// MarketSummary holds market-wide statistics for the latest trading day.
type MarketSummary struct {
	TotalStocks   int          `json:"total_stocks"`
	LatestDate    string       `json:"latest_date"`
	Gainers       []MoverEntry `json:"gainers"`
	Losers        []MoverEntry `json:"losers"`
	TotalVolume   int64        `json:"total_volume"`
	TotalTurnover float64      `json:"total_turnover"`
}

// MarketData is the derived export document consumed by the
// presentation layer.
type MarketData struct {
	LastUpdated string        `json:"last_updated"`
	GeneratedAt time.Time     `json:"generated_at"`
	StockCount  int           `json:"stock_count"`
	Stocks      []StockData   `json:"stocks"`
	Summary     MarketSummary `json:"summary"`
}
