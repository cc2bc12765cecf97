package dataprocessing

import (
	"math"
	"time"

	"gsewatch/pkg/contracts/domain"
)

// Standard trailing windows, in trading rows.
const (
	WindowWeek      = 5
	WindowMonth     = 21
	WindowQuarter   = 63
	WindowHalfYear  = 126
	WindowYear      = 252
	VolatilityRows  = 30
	TradingDaysYear = 252
)

// Engine computes point-in-time and windowed metrics for one symbol's
// history. It never mutates its input; ledgers are read-only here.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an analytics engine. The clock is injectable so
// year-to-date boundaries are testable.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Snapshot derives the metrics snapshot as of the latest quote.
// quotes must be sorted ascending by date. Returns nil for an empty
// history. Metrics the history cannot support are nil, never zero.
func (e *Engine) Snapshot(quotes []domain.Quote) *domain.Snapshot {
	n := len(quotes)
	if n == 0 {
		return nil
	}
	latest := quotes[n-1]

	currentPrice := latest.Close
	prevClose := currentPrice
	if latest.PrevClose != nil {
		prevClose = *latest.PrevClose
	}

	snap := &domain.Snapshot{
		Symbol:       latest.Symbol,
		CurrentPrice: currentPrice,
		PrevClose:    prevClose,
		Open:         valueOr(latest.Open, currentPrice),
		LastUpdated:  latest.Day(),
		DataPoints:   n,
		Turnover:     valueOr(latest.Turnover, 0),
	}

	// The source's asserted change is stored as-is, even when it
	// disagrees with close - prev_close.
	if latest.Change != nil {
		snap.DailyChange = *latest.Change
		if prevClose > 0 {
			snap.DailyChangePct = domain.Float64(*latest.Change / prevClose * 100)
		}
	}

	closes := make([]float64, n)
	for i, q := range quotes {
		closes[i] = q.Close
	}

	// Year high/low: trust the source when supplied, derive from the
	// full history otherwise.
	snap.YearHigh = maxOf(closes)
	if latest.YearHigh != nil && *latest.YearHigh > 0 {
		snap.YearHigh = *latest.YearHigh
	}
	snap.YearLow = minOf(closes)
	if latest.YearLow != nil && *latest.YearLow > 0 {
		snap.YearLow = *latest.YearLow
	}

	if latest.Volume != nil {
		snap.Volume = *latest.Volume
	}
	// Volume averages degrade gracefully to all available rows.
	snap.AvgVolume10D = avgVolume(quotes, 10)
	snap.AvgVolume30D = avgVolume(quotes, 30)

	// Moving averages require the full window.
	snap.MA20 = movingAverage(closes, 20)
	snap.MA50 = movingAverage(closes, 50)
	snap.MA200 = movingAverage(closes, 200)

	snap.Volatility = annualizedVolatility(closes)

	snap.Return1W = periodReturn(closes, WindowWeek)
	snap.Return1M = periodReturn(closes, WindowMonth)
	snap.Return3M = periodReturn(closes, WindowQuarter)
	snap.Return6M = periodReturn(closes, WindowHalfYear)
	snap.Return1Y = periodReturn(closes, WindowYear)
	snap.ReturnYTD = e.ytdReturn(quotes)

	// Spread is defined only when both sides are present and positive.
	if latest.Bid != nil && *latest.Bid > 0 {
		snap.Bid = latest.Bid
	}
	if latest.Ask != nil && *latest.Ask > 0 {
		snap.Ask = latest.Ask
	}
	if snap.Bid != nil && snap.Ask != nil {
		spread := *snap.Ask - *snap.Bid
		snap.Spread = &spread
		if currentPrice > 0 {
			snap.SpreadPct = domain.Float64(spread / currentPrice * 100)
		}
	}

	return snap
}

// movingAverage returns the arithmetic mean of the trailing window, or
// nil when fewer than window rows exist. A partial-window average would
// silently mean something else, so it is never computed.
func movingAverage(closes []float64, window int) *float64 {
	if len(closes) < window || window <= 0 {
		return nil
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return domain.Float64(sum / float64(window))
}

// avgVolume averages volume over the last min(window, available) rows,
// skipping rows whose volume is unknown. Nil when no row in the window
// carries a volume.
func avgVolume(quotes []domain.Quote, window int) *float64 {
	start := len(quotes) - window
	if start < 0 {
		start = 0
	}
	sum, count := 0.0, 0
	for _, q := range quotes[start:] {
		if q.Volume != nil {
			sum += float64(*q.Volume)
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return domain.Float64(sum / float64(count))
}

// annualizedVolatility is the sample standard deviation of the last 30
// day-over-day percentage returns, annualized by sqrt(252), as a
// percentage. Nil when fewer than 30 returns are available.
func annualizedVolatility(closes []float64) *float64 {
	returns := dailyReturns(closes)
	if len(returns) < VolatilityRows {
		return nil
	}
	window := returns[len(returns)-VolatilityRows:]

	mean := 0.0
	for _, r := range window {
		mean += r
	}
	mean /= float64(len(window))

	variance := 0.0
	for _, r := range window {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(window) - 1)

	vol := math.Sqrt(variance) * math.Sqrt(TradingDaysYear) * 100
	return &vol
}

// dailyReturns computes day-over-day fractional returns; days with a
// non-positive prior close yield no return.
func dailyReturns(closes []float64) []float64 {
	var returns []float64
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
	}
	return returns
}

// periodReturn is the percentage return over the trailing k trading
// rows: latest close vs the close k rows before it. Nil when fewer
// than k+1 rows exist or the old close is non-positive.
func periodReturn(closes []float64, k int) *float64 {
	n := len(closes)
	if n < k+1 {
		return nil
	}
	old := closes[n-1-k]
	if old <= 0 {
		return nil
	}
	return domain.Float64((closes[n-1] - old) / old * 100)
}

// ytdReturn compares the latest close to the first close of the
// current calendar year. Nil when fewer than two records fall in the
// year.
func (e *Engine) ytdReturn(quotes []domain.Quote) *float64 {
	year := e.now().Year()
	var inYear []domain.Quote
	for _, q := range quotes {
		if q.Date.Year() == year {
			inYear = append(inYear, q)
		}
	}
	if len(inYear) < 2 {
		return nil
	}
	first := inYear[0].Close
	if first <= 0 {
		return nil
	}
	latest := inYear[len(inYear)-1].Close
	return domain.Float64((latest - first) / first * 100)
}

func valueOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func maxOf(vs []float64) float64 {
	max := vs[0]
	for _, v := range vs[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func minOf(vs []float64) float64 {
	min := vs[0]
	for _, v := range vs[1:] {
		if v < min {
			min = v
		}
	}
	return min
}
