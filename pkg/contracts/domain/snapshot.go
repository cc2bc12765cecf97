package domain

import (
	"time"
)

// Snapshot is the point-in-time metrics view of one symbol's ledger,
// computed as of the latest record. Metrics that cannot be computed
// from the available history are nil, never zero: a flat return and an
// unavailable return mean different things downstream.
type Snapshot struct {
	Symbol         string    `json:"symbol"`
	CurrentPrice   float64   `json:"current_price"`
	PrevClose      float64   `json:"prev_close"`
	Open           float64   `json:"open"`
	DailyChange    float64   `json:"daily_change"`
	DailyChangePct *float64  `json:"daily_change_pct,omitempty"`
	YearHigh       float64   `json:"year_high"`
	YearLow        float64   `json:"year_low"`
	Volume         int64     `json:"volume"`
	AvgVolume10D   *float64  `json:"avg_volume_10d,omitempty"`
	AvgVolume30D   *float64  `json:"avg_volume_30d,omitempty"`
	Turnover       float64   `json:"turnover"`
	Bid            *float64  `json:"bid,omitempty"`
	Ask            *float64  `json:"ask,omitempty"`
	Spread         *float64  `json:"spread,omitempty"`
	SpreadPct      *float64  `json:"spread_pct,omitempty"`
	MA20           *float64  `json:"ma_20,omitempty"`
	MA50           *float64  `json:"ma_50,omitempty"`
	MA200          *float64  `json:"ma_200,omitempty"`
	Volatility     *float64  `json:"volatility,omitempty"`
	Return1W       *float64  `json:"return_1w,omitempty"`
	Return1M       *float64  `json:"return_1m,omitempty"`
	Return3M       *float64  `json:"return_3m,omitempty"`
	Return6M       *float64  `json:"return_6m,omitempty"`
	Return1Y       *float64  `json:"return_1y,omitempty"`
	ReturnYTD      *float64  `json:"return_ytd,omitempty"`
	LastUpdated    time.Time `json:"last_updated"`
	DataPoints     int       `json:"data_points"`
}
