package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gsewatch/internal/config"
	"gsewatch/internal/infrastructure"
	"gsewatch/pkg/contracts/domain"
)

// Merge actions reported per record.
const (
	ActionInserted  = "inserted"
	ActionReplaced  = "replaced"
	ActionUnchanged = "unchanged"
)

// MergeStats aggregates the outcome of a merge batch.
type MergeStats struct {
	Inserted  int
	Replaced  int
	Unchanged int
	Saved     int // ledgers actually rewritten
	Rejected  int // records failing ledger invariants
}

// Applied returns the number of records that changed a ledger.
func (s MergeStats) Applied() int { return s.Inserted + s.Replaced }

// Merger applies normalized quotes to per-symbol ledgers. One calendar
// day holds at most one record per symbol; an incoming record for an
// existing day replaces it wholesale. Re-applying a batch that is
// already in the ledgers rewrites nothing, so the whole pipeline is
// safe to re-run.
type Merger struct {
	store   *Store
	policy  config.PolicyConfig
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewMerger creates a merger over the given store.
func NewMerger(store *Store, policy config.PolicyConfig, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{
		store:   store,
		policy:  policy,
		logger:  logger.With(slog.String("component", "merger")),
		metrics: metrics,
	}
}

// MergeBatch applies quotes grouped by symbol, taking each symbol's
// lock once and rewriting its ledger at most once. Records that fail
// ledger invariants are counted and skipped; the batch proceeds.
func (m *Merger) MergeBatch(ctx context.Context, quotes []domain.Quote) (MergeStats, error) {
	var stats MergeStats

	bySymbol := make(map[string][]domain.Quote)
	var order []string
	for _, q := range quotes {
		if _, seen := bySymbol[q.Symbol]; !seen {
			order = append(order, q.Symbol)
		}
		bySymbol[q.Symbol] = append(bySymbol[q.Symbol], q)
	}
	sort.Strings(order)

	var failed []string
	for _, symbol := range order {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		// A load or save failure is fatal to this symbol only; the
		// rest of the batch still merges.
		if err := m.mergeSymbol(ctx, symbol, bySymbol[symbol], &stats); err != nil {
			failed = append(failed, symbol)
			m.logger.ErrorContext(ctx, "symbol merge failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()))
		}
	}

	m.logger.InfoContext(ctx, "merge batch complete",
		slog.Int("inserted", stats.Inserted),
		slog.Int("replaced", stats.Replaced),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("rejected", stats.Rejected),
		slog.Int("failed", len(failed)),
		slog.Int("ledgers_saved", stats.Saved))
	if len(failed) > 0 {
		return stats, fmt.Errorf("%d of %d symbols failed: %s", len(failed), len(order), strings.Join(failed, ", "))
	}
	return stats, nil
}

// Merge applies a single quote to its symbol's ledger and reports the
// action taken.
func (m *Merger) Merge(ctx context.Context, q domain.Quote) (string, error) {
	var stats MergeStats
	if err := m.mergeSymbol(ctx, q.Symbol, []domain.Quote{q}, &stats); err != nil {
		return "", err
	}
	switch {
	case stats.Rejected > 0:
		return "", fmt.Errorf("record for %s on %s violates ledger bounds", q.Symbol, q.Date.Format(DateLayout))
	case stats.Inserted > 0:
		return ActionInserted, nil
	case stats.Replaced > 0:
		return ActionReplaced, nil
	default:
		return ActionUnchanged, nil
	}
}

func (m *Merger) mergeSymbol(ctx context.Context, symbol string, quotes []domain.Quote, stats *MergeStats) error {
	lock := m.store.Lock(symbol)
	lock.Lock()
	defer lock.Unlock()

	led, err := m.store.Load(ctx, symbol)
	if errors.Is(err, ErrNotFound) {
		led = &domain.Ledger{Symbol: symbol}
	} else if err != nil {
		return err
	}

	dirty := false
	for _, q := range quotes {
		if q.Close <= m.policy.MinClose || q.Close >= m.policy.MaxClose {
			stats.Rejected++
			m.metrics.AddDropped(ctx, 1, "ledger_bounds")
			m.logger.WarnContext(ctx, "rejected record",
				slog.String("symbol", symbol),
				slog.String("date", q.Date.Format(DateLayout)),
				slog.Float64("close", q.Close))
			continue
		}

		m.deriveYearRange(&q, led)

		action := applyQuote(led, q)
		switch action {
		case ActionInserted:
			stats.Inserted++
			dirty = true
		case ActionReplaced:
			stats.Replaced++
			dirty = true
		default:
			stats.Unchanged++
		}
		m.metrics.AddMerge(ctx, action != ActionUnchanged)
	}

	if !dirty {
		return nil
	}
	if err := m.store.Save(ctx, led); err != nil {
		return err
	}
	stats.Saved++
	m.metrics.AddLedgerRewrite(ctx)
	return nil
}

// deriveYearRange fills or widens the incoming record's year high/low.
// The basis is the most recent ledger record of the same calendar year
// strictly before the incoming date, so the range is the year-to-date
// range as of that day and re-applying a batch reproduces it exactly.
// When that record carries no stored range (seed files may have empty
// year columns) the basis is the extremes of the same-year closes
// themselves. Absent any basis it collapses to the close.
func (m *Merger) deriveYearRange(q *domain.Quote, led *domain.Ledger) {
	day := q.Day()
	year := q.Date.Year()

	var priorHigh, priorLow *float64
	var maxClose, minClose *float64
	basis := false
	for _, existing := range led.Quotes { // newest first
		if existing.Date.Year() != year || !existing.Day().Before(day) {
			continue
		}
		if !basis {
			priorHigh, priorLow = existing.YearHigh, existing.YearLow
			basis = true
		}
		c := existing.Close
		if maxClose == nil || c > *maxClose {
			maxClose = &c
		}
		if c > 0 && (minClose == nil || c < *minClose) {
			minClose = &c
		}
	}
	if priorHigh == nil {
		priorHigh = maxClose
	}
	if priorLow == nil {
		priorLow = minClose
	}

	high := q.Close
	if q.YearHigh != nil && *q.YearHigh > high {
		high = *q.YearHigh
	}
	if priorHigh != nil && *priorHigh > high {
		high = *priorHigh
	}
	q.YearHigh = &high

	low := q.Close
	if q.YearLow != nil && *q.YearLow > 0 && *q.YearLow < low {
		low = *q.YearLow
	}
	if priorLow != nil && *priorLow > 0 && *priorLow < low {
		low = *priorLow
	}
	q.YearLow = &low
}

// applyQuote replaces the same-day record or inserts in descending
// date order, keeping the newest record at the head. Returns the action
// taken; an incoming record identical to the stored one is a no-op.
func applyQuote(led *domain.Ledger, q domain.Quote) string {
	for i, existing := range led.Quotes {
		if existing.SameDay(q) {
			if existing.Equal(q) {
				return ActionUnchanged
			}
			led.Quotes[i] = q
			return ActionReplaced
		}
	}

	pos := sort.Search(len(led.Quotes), func(i int) bool {
		return led.Quotes[i].Date.Before(q.Date)
	})
	led.Quotes = append(led.Quotes, domain.Quote{})
	copy(led.Quotes[pos+1:], led.Quotes[pos:])
	led.Quotes[pos] = q
	return ActionInserted
}
